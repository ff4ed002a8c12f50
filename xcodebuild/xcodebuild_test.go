package xcodebuild

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const mockHomeDir = "/Users/vagrant"

type MockPathModifier struct{}

func (MockPathModifier) AbsPath(pth string) (string, error) {
	if strings.HasPrefix(pth, "~") {
		return filepath.Join(mockHomeDir, strings.TrimPrefix(pth, "~")), nil
	}
	if filepath.IsAbs(pth) {
		return filepath.Clean(pth), nil
	}
	return filepath.Join("/workdir", pth), nil
}

type MockProjectDescriptor struct {
	productName string
	scheme      string
	platform    string
}

func (d MockProjectDescriptor) ProductName() string { return d.productName }
func (d MockProjectDescriptor) SchemeName() string  { return d.scheme }
func (d MockProjectDescriptor) Platform() string    { return d.platform }

var exampleProject = MockProjectDescriptor{productName: "ExampleProductName", scheme: "Example", platform: "iOS"}

func fixedNow() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

const (
	defaultArchivePath = mockHomeDir + "/Library/Developer/Xcode/Archives/2024-05-06/ExampleProductName 2024-05-06 07.08.09.xcarchive"
	defaultLogPipe     = "| tee " + mockHomeDir + "/Library/Logs/gym/ExampleProductName-Example.log | xcpretty"
)

func newTestGenerator(t *testing.T, opts Options, project ProjectDescriptor) Generator {
	config, err := NewConfig(opts, newMockPathChecker(exampleProjectPath, exampleWorkspacePath, exampleXcconfigPath))
	require.NoError(t, err)

	generator, err := NewGenerator(config, project, MockPathModifier{}, fixedNow)
	require.NoError(t, err)

	return generator
}

func tokenValues(cmd Command) []string {
	var values []string
	for _, token := range cmd {
		values = append(values, token.String())
	}
	return values
}

func TestGenerator_Generate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Command
	}{
		{
			name: "no additional parameters",
			opts: Options{ProjectPath: exampleProjectPath, Scheme: "Example"},
			want: Command{
				Arg("set -o pipefail &&"),
				Arg("xcodebuild"),
				Arg("-scheme Example"),
				Arg("-project ./examples/standard/Example.xcodeproj"),
				Arg("-destination 'generic/platform=iOS'"),
				Arg("-archivePath '" + defaultArchivePath + "'"),
				Action("archive"),
				Arg(defaultLogPipe),
			},
		},
		{
			name: "additional parameters",
			opts: Options{ProjectPath: exampleProjectPath, Scheme: "Example", SDK: "9.0", Xcargs: `DEBUG=1 BUNDLE_NAME=Example\ App`},
			want: Command{
				Arg("set -o pipefail &&"),
				Arg("xcodebuild"),
				Arg("-scheme Example"),
				Arg("-project ./examples/standard/Example.xcodeproj"),
				Arg("-sdk '9.0'"),
				Arg("-destination 'generic/platform=iOS'"),
				Arg("-archivePath '" + defaultArchivePath + "'"),
				Arg(`DEBUG=1 BUNDLE_NAME=Example\ App`),
				Action("archive"),
				Arg(defaultLogPipe),
			},
		},
		{
			name: "derived data",
			opts: Options{ProjectPath: exampleProjectPath, Scheme: "Example", DerivedDataPath: "/tmp/my/derived_data"},
			want: Command{
				Arg("set -o pipefail &&"),
				Arg("xcodebuild"),
				Arg("-scheme Example"),
				Arg("-project ./examples/standard/Example.xcodeproj"),
				Arg("-destination 'generic/platform=iOS'"),
				Arg("-archivePath '" + defaultArchivePath + "'"),
				Arg("-derivedDataPath '/tmp/my/derived_data'"),
				Action("archive"),
				Arg(defaultLogPipe),
			},
		},
		{
			name: "result bundle",
			opts: Options{ProjectPath: exampleProjectPath, Scheme: "Example", ResultBundle: true},
			want: Command{
				Arg("set -o pipefail &&"),
				Arg("xcodebuild"),
				Arg("-scheme Example"),
				Arg("-project ./examples/standard/Example.xcodeproj"),
				Arg("-destination 'generic/platform=iOS'"),
				Arg("-archivePath '" + defaultArchivePath + "'"),
				Arg("-resultBundlePath './ExampleProductName.result'"),
				Action("archive"),
				Arg(defaultLogPipe),
			},
		},
		{
			name: "every option",
			opts: Options{
				WorkspacePath:       exampleWorkspacePath,
				Scheme:              "Example",
				Configuration:       "App Store",
				SDK:                 "iphoneos",
				Toolchain:           "com.apple.dt.toolchain.XcodeDefault",
				Destination:         "generic/platform=iOS Simulator",
				Xcconfig:            exampleXcconfigPath,
				BuildPath:           "/tmp/archives",
				DerivedDataPath:     "/tmp/derived_data",
				ResultBundlePath:    "/tmp/Example.result",
				Xcargs:              "COMPILER_INDEX_STORE_ENABLE=NO",
				BuildlogPath:        "/tmp/logs",
				Clean:               true,
				CodesigningIdentity: "Apple Distribution: Example Ltd",
				DisableColors:       true,
				SuppressXcodeOutput: true,
			},
			want: Command{
				Arg("set -o pipefail &&"),
				Arg("xcodebuild"),
				Arg("-workspace ./examples/standard/Example.xcworkspace"),
				Arg("-scheme Example"),
				Arg("-configuration 'App Store'"),
				Arg("-sdk 'iphoneos'"),
				Arg("-toolchain 'com.apple.dt.toolchain.XcodeDefault'"),
				Arg("-destination 'generic/platform=iOS Simulator'"),
				Arg("-xcconfig './examples/standard/Release.xcconfig'"),
				Arg("-archivePath '/tmp/archives/ExampleProductName 2024-05-06 07.08.09.xcarchive'"),
				Arg("-derivedDataPath '/tmp/derived_data'"),
				Arg("-resultBundlePath '/tmp/Example.result'"),
				Arg("COMPILER_INDEX_STORE_ENABLE=NO"),
				Action("clean"),
				Action("archive"),
				Arg("CODE_SIGN_IDENTITY='Apple Distribution: Example Ltd'"),
				Arg("| tee /tmp/logs/ExampleProductName-Example.log | xcpretty"),
				Arg("--no-color"),
				Arg("> /dev/null"),
			},
		},
		{
			name: "destination in xcargs replaces the generic destination",
			opts: Options{ProjectPath: exampleProjectPath, Scheme: "Example", Destination: "generic/platform=macOS", Xcargs: "-destination 'platform=iOS Simulator,name=iPhone 15'"},
			want: Command{
				Arg("set -o pipefail &&"),
				Arg("xcodebuild"),
				Arg("-scheme Example"),
				Arg("-project ./examples/standard/Example.xcodeproj"),
				Arg("-archivePath '" + defaultArchivePath + "'"),
				Arg("-destination 'platform=iOS Simulator,name=iPhone 15'"),
				Action("archive"),
				Arg(defaultLogPipe),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestGenerator(t, tt.opts, exampleProject).Generate()

			require.Equal(t, tt.want, cmd)
			require.NoError(t, cmd.Validate())
		})
	}
}

func TestGenerator_Generate_platform(t *testing.T) {
	project := MockProjectDescriptor{productName: "ExampleTV", scheme: "ExampleTV", platform: "tvOS"}
	cmd := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "ExampleTV"}, project).Generate()

	require.Contains(t, cmd, Arg("-destination 'generic/platform=tvOS'"))
	require.Contains(t, cmd, Arg("-scheme ExampleTV"))
}

func TestGenerator_Generate_schemeFromProject(t *testing.T) {
	project := MockProjectDescriptor{productName: "ExampleProductName", scheme: "Example Scheme", platform: "iOS"}
	generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath}, project)

	require.Equal(t, []string{"-scheme 'Example Scheme'", "-project ./examples/standard/Example.xcodeproj"}, generator.ProjectPathArray())
	require.Equal(t, mockHomeDir+"/Library/Logs/gym/ExampleProductName-Example Scheme.log", generator.XcodebuildLogPath())
	require.Contains(t, generator.Generate(), Arg("| tee '"+mockHomeDir+"/Library/Logs/gym/ExampleProductName-Example Scheme.log' | xcpretty"))
}

func TestGenerator_ProjectPathArray(t *testing.T) {
	generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example"}, exampleProject)

	require.Equal(t, []string{"-scheme Example", "-project ./examples/standard/Example.xcodeproj"}, generator.ProjectPathArray())
}

func TestGenerator_BuildPath(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example"}, exampleProject)

		require.Regexp(t, regexp.MustCompile(`Library/Developer/Xcode/Archives/\d{4}-\d\d-\d\d$`), generator.BuildPath())
		require.Equal(t, mockHomeDir+"/Library/Developer/Xcode/Archives/2024-05-06", generator.BuildPath())
	})

	t.Run("user provided", func(t *testing.T) {
		generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example", BuildPath: "/tmp/my/build_path"}, exampleProject)

		require.Equal(t, "/tmp/my/build_path", generator.BuildPath())
		require.Equal(t, "/tmp/my/build_path/ExampleProductName 2024-05-06 07.08.09.xcarchive", generator.ArchivePath())
	})
}

func TestGenerator_ArchivePath(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example"}, exampleProject)

		require.Regexp(t, regexp.MustCompile(`Library/Developer/Xcode/Archives/\d{4}-\d\d-\d\d/ExampleProductName \d{4}-\d\d-\d\d \d\d\.\d\d\.\d\d\.xcarchive$`), generator.ArchivePath())
	})

	t.Run("output name", func(t *testing.T) {
		generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example", OutputName: "MyApp", ResultBundle: true, OutputDirectory: "/tmp/output"}, exampleProject)

		require.Equal(t, mockHomeDir+"/Library/Developer/Xcode/Archives/2024-05-06/MyApp 2024-05-06 07.08.09.xcarchive", generator.ArchivePath())
		require.Equal(t, "/tmp/output/MyApp.result", generator.ResultBundlePath())
		require.Equal(t, mockHomeDir+"/Library/Logs/gym/ExampleProductName-Example.log", generator.XcodebuildLogPath())
	})

	t.Run("user provided", func(t *testing.T) {
		generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example", ArchivePath: "/tmp/Example.xcarchive"}, exampleProject)

		require.Equal(t, "/tmp/Example.xcarchive", generator.ArchivePath())
		require.Contains(t, generator.Generate(), Arg("-archivePath '/tmp/Example.xcarchive'"))
	})
}

func TestGenerator_ResultBundlePath(t *testing.T) {
	tests := []struct {
		outputDirectory string
		want            string
	}{
		{outputDirectory: ".", want: "./ExampleProductName.result"},
		{outputDirectory: "./", want: "./ExampleProductName.result"},
		{outputDirectory: "./build", want: "./build/ExampleProductName.result"},
		{outputDirectory: "./build/", want: "./build/ExampleProductName.result"},
		{outputDirectory: "build", want: "build/ExampleProductName.result"},
		{outputDirectory: "/tmp/output", want: "/tmp/output/ExampleProductName.result"},
		{outputDirectory: "/", want: "/ExampleProductName.result"},
	}
	for _, tt := range tests {
		t.Run(tt.outputDirectory, func(t *testing.T) {
			generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example", ResultBundle: true, OutputDirectory: tt.outputDirectory}, exampleProject)

			require.Equal(t, tt.want, generator.ResultBundlePath())
			require.Contains(t, generator.Generate(), Arg("-resultBundlePath '"+tt.want+"'"))
		})
	}
}

func TestGenerator_XcodebuildLogPath(t *testing.T) {
	t.Run("provided", func(t *testing.T) {
		generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example", BuildlogPath: "/tmp/my/path"}, exampleProject)

		require.Equal(t, "/tmp/my/path/ExampleProductName-Example.log", generator.XcodebuildLogPath())
	})

	t.Run("not provided", func(t *testing.T) {
		generator := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example"}, exampleProject)

		require.Contains(t, generator.XcodebuildLogPath(), "Library/Logs/gym")
	})
}

func TestNewGenerator_capturesTimestampOnce(t *testing.T) {
	config, err := NewConfig(Options{ProjectPath: exampleProjectPath, Scheme: "Example"}, newMockPathChecker(exampleProjectPath))
	require.NoError(t, err)

	calls := 0
	now := func() time.Time {
		calls++
		// a clock crossing midnight between calls would split the date and the archive name
		return time.Date(2024, 5, 6, 23, 59, 59, 0, time.UTC).Add(time.Duration(calls-1) * time.Second)
	}

	generator, err := NewGenerator(config, exampleProject, MockPathModifier{}, now)
	require.NoError(t, err)

	first := generator.Generate()
	second := generator.Generate()

	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
	require.Equal(t, mockHomeDir+"/Library/Developer/Xcode/Archives/2024-05-06/ExampleProductName 2024-05-06 23.59.59.xcarchive", generator.ArchivePath())
}

func TestCommand(t *testing.T) {
	cmd := newTestGenerator(t, Options{ProjectPath: exampleProjectPath, Scheme: "Example", Clean: true}, exampleProject).Generate()

	require.Equal(t, []string{"clean", "archive"}, cmd.Actions())
	require.Equal(t, strings.Join(tokenValues(cmd), " "), cmd.String())
	require.Equal(t, "set -o pipefail && xcodebuild -scheme Example -project ./examples/standard/Example.xcodeproj "+
		"-destination 'generic/platform=iOS' -archivePath '"+defaultArchivePath+"' clean archive "+defaultLogPipe, cmd.String())
}

func TestCommand_Validate(t *testing.T) {
	require.NoError(t, Command{Arg("set -o pipefail &&"), Arg("xcodebuild"), Action("archive"), Arg("| tee /tmp/log | xcpretty")}.Validate())
	require.Error(t, Command{Arg("xcodebuild"), Arg("("), Action("archive")}.Validate())
	require.Error(t, Command{Arg("xcodebuild"), Action("archive"), Arg("| tee '/tmp/log | xcpretty")}.Validate())
}
