package xcodebuild

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/sliceutil"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-xcode-archive-command/xcpretty"
	"github.com/kballard/go-shellquote"
)

const (
	toolName = "xcodebuild"

	pipefailPrefix = "set -o pipefail &&"

	cleanAction   = "clean"
	archiveAction = "archive"
)

// ProjectDescriptor exposes the project metadata used for templating paths.
type ProjectDescriptor interface {
	ProductName() string
	SchemeName() string
	Platform() string
}

// Generator builds the archive command for one configuration.
// Default paths are computed once, from the timestamp taken at construction.
type Generator struct {
	config  Config
	project ProjectDescriptor

	buildPath        string
	archivePath      string
	resultBundlePath string

	prettyCmd *xcpretty.Model
}

// NewGenerator ...
func NewGenerator(config Config, project ProjectDescriptor, pathModifier pathutil.PathModifier, now func() time.Time) (Generator, error) {
	paths, err := newArchivePaths(config.Options(), project, pathModifier, now())
	if err != nil {
		return Generator{}, err
	}

	opts := config.Options()
	prettyCmd := xcpretty.New(paths.logPath).
		SetDisableColors(opts.DisableColors).
		SetSuppressOutput(opts.SuppressXcodeOutput)

	return Generator{
		config:           config,
		project:          project,
		buildPath:        paths.buildPath,
		archivePath:      paths.archivePath,
		resultBundlePath: paths.resultBundlePath,
		prettyCmd:        prettyCmd,
	}, nil
}

// Generate returns the full pipeline: prefix, tool, options, actions, build settings and the log pipe.
func (g Generator) Generate() Command {
	cmd := Command{Arg(pipefailPrefix), Arg(toolName)}
	for _, option := range g.Options() {
		cmd = append(cmd, Arg(option))
	}
	for _, action := range g.Actions() {
		cmd = append(cmd, Action(action))
	}
	for _, setting := range g.Settings() {
		cmd = append(cmd, Arg(setting))
	}
	for _, segment := range g.prettyCmd.PipeSegments() {
		cmd = append(cmd, Arg(segment))
	}
	return cmd
}

// ProjectPathArray returns the container and scheme selection flags.
func (g Generator) ProjectPathArray() []string {
	opts := g.config.Options()

	var params []string
	if opts.WorkspacePath != "" {
		params = append(params, "-workspace "+shellquote.Join(opts.WorkspacePath))
	}
	params = append(params, "-scheme "+shellquote.Join(g.project.SchemeName()))
	if opts.ProjectPath != "" {
		params = append(params, "-project "+shellquote.Join(opts.ProjectPath))
	}
	if opts.Configuration != "" {
		params = append(params, "-configuration "+shellquote.Join(opts.Configuration))
	}
	return params
}

// Options returns every flag between the tool name and the actions.
func (g Generator) Options() []string {
	opts := g.config.Options()

	options := g.ProjectPathArray()
	if opts.SDK != "" {
		options = append(options, "-sdk "+quoted(opts.SDK))
	}
	if opts.Toolchain != "" {
		options = append(options, "-toolchain "+quoted(opts.Toolchain))
	}
	if destination := g.destination(); destination != "" {
		options = append(options, "-destination "+quoted(destination))
	}
	if opts.Xcconfig != "" {
		options = append(options, "-xcconfig "+quoted(opts.Xcconfig))
	}
	options = append(options, "-archivePath "+quoted(g.archivePath))
	if opts.DerivedDataPath != "" {
		options = append(options, "-derivedDataPath "+quoted(opts.DerivedDataPath))
	}
	if opts.ResultBundle {
		options = append(options, "-resultBundlePath "+quoted(g.resultBundlePath))
	}
	if opts.Xcargs != "" {
		options = append(options, opts.Xcargs)
	}
	return options
}

// Actions ...
func (g Generator) Actions() []string {
	if g.config.Options().Clean {
		return []string{cleanAction, archiveAction}
	}
	return []string{archiveAction}
}

// Settings returns the build settings placed after the actions.
func (g Generator) Settings() []string {
	var settings []string
	if identity := g.config.Options().CodesigningIdentity; identity != "" {
		settings = append(settings, "CODE_SIGN_IDENTITY="+shellquote.Join(identity))
	}
	return settings
}

// BuildPath ...
func (g Generator) BuildPath() string {
	return g.buildPath
}

// ArchivePath ...
func (g Generator) ArchivePath() string {
	return g.archivePath
}

// ResultBundlePath returns the result bundle path, even if the result bundle is not requested.
func (g Generator) ResultBundlePath() string {
	return g.resultBundlePath
}

// XcodebuildLogPath ...
func (g Generator) XcodebuildLogPath() string {
	return g.prettyCmd.LogPath()
}

func (g Generator) destination() string {
	// A destination passed in the extra arguments wins over the generic one.
	if sliceutil.IsStringInSlice("-destination", g.config.XcargsWords()) {
		return ""
	}

	if destination := g.config.Options().Destination; destination != "" {
		return destination
	}
	return "generic/platform=" + g.project.Platform()
}

func quoted(value string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(value, "'", `'\''`))
}
