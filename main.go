package main

import (
	"os"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-io/go-xcode/v2/xcpretty"
	"github.com/bitrise-steplib/steps-xcode-archive-command/project"
	"github.com/bitrise-steplib/steps-xcode-archive-command/step"
	"github.com/bitrise-steplib/steps-xcode-archive-command/steprunner"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()
	archiveCommandGenerator := createArchiveCommandGenerator(logger)
	runner := steprunner.NewStepRunner[step.Config, step.RunResult](logger)

	return runner.Run(archiveCommandGenerator)
}

func createArchiveCommandGenerator(logger log.Logger) step.ArchiveCommandGenerator {
	envRepository := env.NewRepository()
	inputParser := stepconf.NewInputParser(envRepository)
	pathChecker := pathutil.NewPathChecker()
	pathModifier := pathutil.NewPathModifier()
	fileManager := fileutil.NewFileManager()
	cmdFactory := command.NewFactory(envRepository)
	projectOpener := project.NewOpener(project.NewXcodebuildSettingsReader(cmdFactory), logger)
	formatterChecker := xcpretty.NewXcpretty(logger)

	return step.NewArchiveCommandGenerator(inputParser, pathChecker, pathModifier, fileManager, projectOpener, formatterChecker, logger, cmdFactory, time.Now)
}
