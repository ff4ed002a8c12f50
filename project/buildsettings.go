package project

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
)

// BuildSettingsReader resolves build settings when the project file alone is not enough.
type BuildSettingsReader interface {
	ReadBuildSettings(containerPath, scheme, configuration string) (map[string]string, error)
}

type xcodebuildSettingsReader struct {
	cmdFactory command.Factory
}

// NewXcodebuildSettingsReader returns a reader running `xcodebuild -showBuildSettings`.
func NewXcodebuildSettingsReader(cmdFactory command.Factory) BuildSettingsReader {
	return xcodebuildSettingsReader{cmdFactory: cmdFactory}
}

// ReadBuildSettings ...
func (r xcodebuildSettingsReader) ReadBuildSettings(containerPath, scheme, configuration string) (map[string]string, error) {
	containerFlag := "-project"
	if filepath.Ext(containerPath) == ".xcworkspace" {
		containerFlag = "-workspace"
	}

	args := []string{containerFlag, containerPath, "-scheme", scheme}
	if configuration != "" {
		args = append(args, "-configuration", configuration)
	}
	args = append(args, "-showBuildSettings")

	cmd := r.cmdFactory.Create("xcodebuild", args, nil)
	out, err := cmd.RunAndReturnTrimmedCombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %s: %w", cmd.PrintableCommandArgs(), out, err)
	}

	return parseBuildSettings(out), nil
}

// parseBuildSettings keeps the first value of every key, that belongs to the scheme's first target.
func parseBuildSettings(out string) map[string]string {
	settings := map[string]string{}

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, " = ")
		if !found || strings.Contains(key, " ") {
			continue
		}
		if _, ok := settings[key]; !ok {
			settings[key] = value
		}
	}

	return settings
}
