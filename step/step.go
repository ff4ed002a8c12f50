package step

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-xcode-archive-command/project"
	"github.com/bitrise-steplib/steps-xcode-archive-command/xcodebuild"
	"github.com/hashicorp/go-version"
)

const (
	// Env Outputs
	xcodebuildArchiveCommandEnvKey = "XCODEBUILD_ARCHIVE_COMMAND"
	bitriseXCArchivePthEnvKey      = "BITRISE_XCARCHIVE_PATH"
	bitriseXCResultPthEnvKey       = "BITRISE_XCRESULT_PATH"

	// Deployed logs
	xcodebuildArchiveLogPathEnvKey = "BITRISE_XCODEBUILD_ARCHIVE_LOG_PATH"
)

// Inputs ...
type Inputs struct {
	ProjectPath   string `env:"project_path"`
	WorkspacePath string `env:"workspace_path"`
	Scheme        string `env:"scheme"`
	Configuration string `env:"configuration"`

	SDK         string `env:"sdk"`
	Toolchain   string `env:"toolchain"`
	Destination string `env:"destination"`
	Xcconfig    string `env:"xcconfig"`
	Xcargs      string `env:"xcargs"`

	BuildPath        string `env:"build_path"`
	ArchivePath      string `env:"archive_path"`
	DerivedDataPath  string `env:"derived_data_path"`
	ResultBundle     bool   `env:"result_bundle,opt[yes,no]"`
	ResultBundlePath string `env:"result_bundle_path"`
	OutputDirectory  string `env:"output_directory,required"`
	OutputName       string `env:"output_name"`
	BuildlogPath     string `env:"buildlog_path,required"`

	Clean               bool   `env:"clean,opt[yes,no]"`
	CodesigningIdentity string `env:"codesigning_identity"`
	DisableColors       bool   `env:"disable_colors,opt[yes,no]"`
	SuppressXcodeOutput bool   `env:"suppress_xcode_output,opt[yes,no]"`
	VerboseLog          bool   `env:"verbose_log,opt[yes,no]"`
}

func (i Inputs) xcodebuildOptions() xcodebuild.Options {
	return xcodebuild.Options{
		ProjectPath:         i.ProjectPath,
		WorkspacePath:       i.WorkspacePath,
		Scheme:              i.Scheme,
		Configuration:       i.Configuration,
		SDK:                 i.SDK,
		Toolchain:           i.Toolchain,
		Destination:         i.Destination,
		Xcconfig:            i.Xcconfig,
		Xcargs:              i.Xcargs,
		BuildPath:           i.BuildPath,
		ArchivePath:         i.ArchivePath,
		DerivedDataPath:     i.DerivedDataPath,
		ResultBundle:        i.ResultBundle,
		ResultBundlePath:    i.ResultBundlePath,
		OutputDirectory:     i.OutputDirectory,
		OutputName:          i.OutputName,
		BuildlogPath:        i.BuildlogPath,
		Clean:               i.Clean,
		CodesigningIdentity: i.CodesigningIdentity,
		DisableColors:       i.DisableColors,
		SuppressXcodeOutput: i.SuppressXcodeOutput,
	}
}

// Config ...
type Config struct {
	Inputs
	Xcodebuild xcodebuild.Config
}

// ProjectOpener reads the metadata the archive command is templated with.
type ProjectOpener interface {
	Open(containerPath, scheme, configuration string) (project.Descriptor, error)
}

// FormatterChecker ...
type FormatterChecker interface {
	IsInstalled() (bool, error)
	Version() (*version.Version, error)
}

// ArchiveCommandGenerator ...
type ArchiveCommandGenerator struct {
	stepInputParser  stepconf.InputParser
	pathChecker      pathutil.PathChecker
	pathModifier     pathutil.PathModifier
	fileManager      fileutil.FileManager
	projectOpener    ProjectOpener
	formatterChecker FormatterChecker
	logger           log.Logger
	cmdFactory       command.Factory
	now              func() time.Time
}

// NewArchiveCommandGenerator ...
func NewArchiveCommandGenerator(stepInputParser stepconf.InputParser, pathChecker pathutil.PathChecker, pathModifier pathutil.PathModifier, fileManager fileutil.FileManager, projectOpener ProjectOpener, formatterChecker FormatterChecker, logger log.Logger, cmdFactory command.Factory, now func() time.Time) ArchiveCommandGenerator {
	return ArchiveCommandGenerator{
		stepInputParser:  stepInputParser,
		pathChecker:      pathChecker,
		pathModifier:     pathModifier,
		fileManager:      fileManager,
		projectOpener:    projectOpener,
		formatterChecker: formatterChecker,
		logger:           logger,
		cmdFactory:       cmdFactory,
		now:              now,
	}
}

// ProcessInputs ...
func (s ArchiveCommandGenerator) ProcessInputs() (Config, error) {
	var inputs Inputs
	if err := s.stepInputParser.Parse(&inputs); err != nil {
		return Config{}, fmt.Errorf("issue with input: %w", err)
	}

	stepconf.Print(inputs)
	s.logger.Println()

	s.logger.EnableDebugLog(inputs.VerboseLog)

	xcodebuildConfig, err := xcodebuild.NewConfig(inputs.xcodebuildOptions(), s.pathChecker)
	if err != nil {
		return Config{}, fmt.Errorf("issue with input: %w", err)
	}

	return Config{Inputs: inputs, Xcodebuild: xcodebuildConfig}, nil
}

// EnsureDependencies ...
func (s ArchiveCommandGenerator) EnsureDependencies(_ Config) error {
	s.logger.Println()
	s.logger.Infof("Checking if log formatter (xcpretty) is installed")

	installed, err := s.formatterChecker.IsInstalled()
	if err != nil {
		return fmt.Errorf("failed to check if xcpretty is installed: %w", err)
	}

	if !installed {
		s.logger.Warnf("xcpretty is not installed, the generated command expects it on the PATH")
		return nil
	}

	xcprettyVersion, err := s.formatterChecker.Version()
	if err != nil {
		return fmt.Errorf("failed to determine xcpretty version: %w", err)
	}
	s.logger.Printf("- xcprettyVersion: %s", xcprettyVersion.String())

	return nil
}

// RunResult ...
type RunResult struct {
	Command           xcodebuild.Command
	ArchivePath       string
	XcodebuildLogPath string
	// ResultBundlePath is empty when no result bundle is requested.
	ResultBundlePath string
}

// Run ...
func (s ArchiveCommandGenerator) Run(config Config) (RunResult, error) {
	opts := config.Xcodebuild.Options()

	s.logger.Println()
	s.logger.Infof("Reading project metadata")

	descriptor, err := s.projectOpener.Open(config.Xcodebuild.ContainerPath(), opts.Scheme, opts.Configuration)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to open project (%s): %w", config.Xcodebuild.ContainerPath(), err)
	}

	generator, err := xcodebuild.NewGenerator(config.Xcodebuild, descriptor, s.pathModifier, s.now)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to prepare archive command: %w", err)
	}

	cmd := generator.Generate()
	if err := cmd.Validate(); err != nil {
		return RunResult{}, err
	}

	s.logger.Println()
	s.logger.Infof("Archive command:")
	s.logger.Printf("$ %s", cmd.String())

	if err := os.MkdirAll(filepath.Dir(generator.ArchivePath()), 0755); err != nil {
		return RunResult{}, fmt.Errorf("failed to create archive directory: %w", err)
	}
	// tee does not create missing directories
	if err := s.fileManager.Write(generator.XcodebuildLogPath(), "", 0644); err != nil {
		return RunResult{}, fmt.Errorf("failed to create xcodebuild log file: %w", err)
	}

	result := RunResult{
		Command:           cmd,
		ArchivePath:       generator.ArchivePath(),
		XcodebuildLogPath: generator.XcodebuildLogPath(),
	}
	if opts.ResultBundle {
		result.ResultBundlePath = generator.ResultBundlePath()
	}

	return result, nil
}

// ExportOutput ...
func (s ArchiveCommandGenerator) ExportOutput(_ Config, result RunResult) error {
	s.logger.Println()
	s.logger.Infof("Exporting outputs...")

	outputs := []struct {
		key   string
		value string
		desc  string
	}{
		{key: xcodebuildArchiveCommandEnvKey, value: result.Command.String(), desc: "The archive command"},
		{key: bitriseXCArchivePthEnvKey, value: result.ArchivePath, desc: "The xcarchive path"},
		{key: xcodebuildArchiveLogPathEnvKey, value: result.XcodebuildLogPath, desc: "The xcodebuild archive log path"},
		{key: bitriseXCResultPthEnvKey, value: result.ResultBundlePath, desc: "The result bundle path"},
	}

	for _, output := range outputs {
		if output.value == "" {
			continue
		}

		if err := exportEnvironmentWithEnvman(s.cmdFactory, output.key, output.value); err != nil {
			return fmt.Errorf("failed to export %s: %w", output.key, err)
		}
		s.logger.Donef("%s is now available in the Environment Variable: %s (value: %s)", output.desc, output.key, output.value)
	}

	return nil
}
