package steprunner

import (
	"fmt"

	"github.com/bitrise-io/go-utils/v2/errorutil"
	"github.com/bitrise-io/go-utils/v2/log"
)

type Step[C any, R any] interface {
	ProcessInputs() (C, error)
	EnsureDependencies(C) error
	Run(C) (R, error)
	ExportOutput(C, R) error
}

type StepRunner[C any, R any] struct {
	logger log.Logger
}

func NewStepRunner[C any, R any](logger log.Logger) StepRunner[C, R] {
	return StepRunner[C, R]{
		logger: logger,
	}
}

func (r StepRunner[C, R]) Run(step Step[C, R]) int {
	config, err := step.ProcessInputs()
	if err != nil {
		return r.fail("processing Step Inputs", err)
	}

	if err := step.EnsureDependencies(config); err != nil {
		return r.fail("checking Step Dependencies", err)
	}

	exitCode := 0
	result, err := step.Run(config)
	if err != nil {
		exitCode = r.fail("generating the archive command", err)
		// whatever the failed run resolved (e.g. the log path) is still exported
	}

	if err := step.ExportOutput(config, result); err != nil {
		return r.fail("exporting Step Outputs", err)
	}

	return exitCode
}

func (r StepRunner[C, R]) fail(phase string, err error) int {
	r.logger.Errorf(errorutil.FormattedError(fmt.Errorf("%s failed: %w", phase, err)))
	return 1
}
