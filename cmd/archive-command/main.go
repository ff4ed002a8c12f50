package main

import (
	"os"
	"time"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/errorutil"
	"github.com/bitrise-io/go-utils/v2/log"
)

func main() {
	logger := log.NewLogger()
	cmdFactory := command.NewFactory(env.NewRepository())

	if err := newRootCommand(logger, cmdFactory, time.Now).Execute(); err != nil {
		logger.Errorf(errorutil.FormattedError(err))
		os.Exit(1)
	}
}
