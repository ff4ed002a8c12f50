package step

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
)

func exportEnvironmentWithEnvman(cmdFactory command.Factory, keyStr, valueStr string) error {
	cmd := cmdFactory.Create("envman", []string{"add", "--key", keyStr}, &command.Opts{Stdin: strings.NewReader(valueStr)})
	if out, err := cmd.RunAndReturnTrimmedCombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %s: %w", cmd.PrintableCommandArgs(), out, err)
	}
	return nil
}
