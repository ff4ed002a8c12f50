package xcodebuild

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/pathutil"
)

const (
	buildPathDateLayout     = "2006-01-02"
	archiveNameTimeLayout   = "2006-01-02 15.04.05"
	archiveExtension        = ".xcarchive"
	resultBundleExtension   = ".result"
	xcodebuildLogNameFormat = "%s-%s.log"
)

type archivePaths struct {
	buildPath        string
	archivePath      string
	resultBundlePath string
	logPath          string
}

func newArchivePaths(opts Options, project ProjectDescriptor, pathModifier pathutil.PathModifier, timestamp time.Time) (archivePaths, error) {
	outputName := opts.OutputName
	if outputName == "" {
		outputName = project.ProductName()
	}

	buildPath := opts.BuildPath
	if buildPath == "" {
		var err error
		buildPath, err = pathModifier.AbsPath(defaultArchivesDir + "/" + timestamp.Format(buildPathDateLayout))
		if err != nil {
			return archivePaths{}, fmt.Errorf("failed to expand default build path: %w", err)
		}
	}

	archivePath := opts.ArchivePath
	if archivePath == "" {
		archiveName := strings.Join([]string{outputName, timestamp.Format(archiveNameTimeLayout)}, " ")
		archivePath = filepath.Join(buildPath, archiveName+archiveExtension)
	}

	resultBundlePath := opts.ResultBundlePath
	if resultBundlePath == "" {
		resultBundlePath = joinOutputPath(opts.OutputDirectory, outputName) + resultBundleExtension
	}

	logDir, err := pathModifier.AbsPath(opts.BuildlogPath)
	if err != nil {
		return archivePaths{}, fmt.Errorf("failed to expand build log path (%s): %w", opts.BuildlogPath, err)
	}
	logName := fmt.Sprintf(xcodebuildLogNameFormat, project.ProductName(), project.SchemeName())

	return archivePaths{
		buildPath:        buildPath,
		archivePath:      archivePath,
		resultBundlePath: resultBundlePath,
		logPath:          filepath.Join(logDir, logName),
	}, nil
}

// joinOutputPath keeps the output directory verbatim, "./build" yields "./build/<name>".
func joinOutputPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
