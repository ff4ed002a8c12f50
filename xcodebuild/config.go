package xcodebuild

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/kballard/go-shellquote"
)

const (
	// DefaultBuildlogPath is the directory the xcodebuild log is teed into.
	DefaultBuildlogPath = "~/Library/Logs/gym"
	// DefaultOutputDirectory is the directory of the result bundle.
	DefaultOutputDirectory = "."

	defaultArchivesDir = "~/Library/Developer/Xcode/Archives"
)

// Options ...
type Options struct {
	ProjectPath   string
	WorkspacePath string
	Scheme        string
	Configuration string

	SDK         string
	Toolchain   string
	Destination string
	Xcconfig    string
	Xcargs      string

	BuildPath        string
	ArchivePath      string
	DerivedDataPath  string
	ResultBundle     bool
	ResultBundlePath string
	OutputDirectory  string
	OutputName       string
	BuildlogPath     string

	Clean               bool
	CodesigningIdentity string
	DisableColors       bool
	SuppressXcodeOutput bool
}

// Config is the validated, immutable form of Options.
type Config struct {
	options     Options
	xcargsWords []string
}

// PathNotFoundError is returned when a referenced file does not exist.
type PathNotFoundError struct {
	Kind string
	Path string
}

func (e PathNotFoundError) Error() string {
	return fmt.Sprintf("%s file not found at path '%s'", e.Kind, e.Path)
}

// NewConfig validates the options eagerly, so an invalid project never reaches the generator.
func NewConfig(opts Options, pathChecker pathutil.PathChecker) (Config, error) {
	// a project path may point to a workspace
	if filepath.Ext(opts.ProjectPath) == ".xcworkspace" && opts.WorkspacePath == "" {
		opts.ProjectPath, opts.WorkspacePath = "", opts.ProjectPath
	}

	switch {
	case opts.ProjectPath == "" && opts.WorkspacePath == "":
		return Config{}, errors.New("no project or workspace path provided")
	case opts.ProjectPath != "" && opts.WorkspacePath != "":
		return Config{}, fmt.Errorf("project (%s) and workspace (%s) paths are mutually exclusive", opts.ProjectPath, opts.WorkspacePath)
	}

	if opts.ProjectPath != "" {
		if err := checkFile(pathChecker, "Project", opts.ProjectPath); err != nil {
			return Config{}, err
		}
		if filepath.Ext(opts.ProjectPath) != ".xcodeproj" {
			return Config{}, fmt.Errorf("issue with project path (%s): should be an .xcodeproj path", opts.ProjectPath)
		}
	} else {
		if err := checkFile(pathChecker, "Workspace", opts.WorkspacePath); err != nil {
			return Config{}, err
		}
		if filepath.Ext(opts.WorkspacePath) != ".xcworkspace" {
			return Config{}, fmt.Errorf("issue with workspace path (%s): should be an .xcworkspace path", opts.WorkspacePath)
		}
	}

	if opts.Xcconfig != "" {
		if err := checkFile(pathChecker, "Xcconfig", opts.Xcconfig); err != nil {
			return Config{}, err
		}
	}

	xcargsWords, err := shellquote.Split(opts.Xcargs)
	if err != nil {
		return Config{}, fmt.Errorf("provided xcargs (%s) are not valid CLI parameters: %w", opts.Xcargs, err)
	}

	if opts.ResultBundlePath != "" {
		opts.ResultBundle = true
	}
	if opts.OutputDirectory == "" {
		opts.OutputDirectory = DefaultOutputDirectory
	}
	if opts.BuildlogPath == "" {
		opts.BuildlogPath = DefaultBuildlogPath
	}

	return Config{options: opts, xcargsWords: xcargsWords}, nil
}

func checkFile(pathChecker pathutil.PathChecker, kind, pth string) error {
	exists, err := pathChecker.IsPathExists(pth)
	if err != nil {
		return fmt.Errorf("failed to check if %s path (%s) exists: %w", kind, pth, err)
	}
	if !exists {
		return PathNotFoundError{Kind: kind, Path: pth}
	}
	return nil
}

// Options returns a copy of the validated options.
func (c Config) Options() Options {
	return c.options
}

// ContainerPath returns the workspace path, or the project path if no workspace is used.
func (c Config) ContainerPath() string {
	if c.options.WorkspacePath != "" {
		return c.options.WorkspacePath
	}
	return c.options.ProjectPath
}

// IsWorkspace ...
func (c Config) IsWorkspace() bool {
	return c.options.WorkspacePath != ""
}

// XcargsWords returns the extra arguments split into shell words.
func (c Config) XcargsWords() []string {
	return append([]string(nil), c.xcargsWords...)
}
