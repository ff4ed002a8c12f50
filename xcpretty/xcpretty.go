package xcpretty

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

const (
	toolName = "xcpretty"
)

// Model builds the log pipe appended to the xcodebuild command.
type Model struct {
	logPath        string
	disableColors  bool
	suppressOutput bool
}

// New ...
func New(logPath string) *Model {
	return &Model{logPath: logPath}
}

// SetDisableColors ...
func (xcp *Model) SetDisableColors(disableColors bool) *Model {
	xcp.disableColors = disableColors
	return xcp
}

// SetSuppressOutput ...
func (xcp *Model) SetSuppressOutput(suppressOutput bool) *Model {
	xcp.suppressOutput = suppressOutput
	return xcp
}

// LogPath ...
func (xcp Model) LogPath() string {
	return xcp.logPath
}

// PipeSegments returns the shell fragments that tee the raw log and format it.
func (xcp Model) PipeSegments() []string {
	segments := []string{fmt.Sprintf("| tee %s | %s", shellquote.Join(xcp.logPath), toolName)}
	if xcp.disableColors {
		segments = append(segments, "--no-color")
	}
	if xcp.suppressOutput {
		segments = append(segments, "> /dev/null")
	}
	return segments
}
