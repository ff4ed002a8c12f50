package main

import (
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-xcode-archive-command/project"
	"github.com/bitrise-steplib/steps-xcode-archive-command/xcodebuild"
	"github.com/spf13/cobra"
)

// newRootCommand creates the `archive-command` command.
func newRootCommand(logger log.Logger, cmdFactory command.Factory, now func() time.Time) *cobra.Command {
	var (
		opts    xcodebuild.Options
		tokens  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "archive-command",
		Short: "Print the xcodebuild archive command of an Xcode project",
		Long: `Print the xcodebuild archive command of an Xcode project or workspace.

The command is generated, validated and printed, but never executed.

Examples:
  archive-command --project ./Example.xcodeproj --scheme Example
  archive-command --workspace ./Example.xcworkspace --result-bundle --tokens
  archive-command --project ./Example.xcodeproj --xcargs 'DEBUG=1 BUNDLE_NAME=Example\ App'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.EnableDebugLog(verbose)

			generated, err := generateArchiveCommand(opts, logger, cmdFactory, now)
			if err != nil {
				return err
			}

			if !tokens {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), generated.String())
				return err
			}
			for _, token := range generated {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), token.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ProjectPath, "project", "", "path of the .xcodeproj")
	flags.StringVar(&opts.WorkspacePath, "workspace", "", "path of the .xcworkspace")
	flags.StringVarP(&opts.Scheme, "scheme", "s", "", "scheme to archive (default: the only scheme of the project)")
	flags.StringVarP(&opts.Configuration, "configuration", "c", "", "build configuration")
	flags.StringVar(&opts.SDK, "sdk", "", "value of -sdk")
	flags.StringVar(&opts.Toolchain, "toolchain", "", "value of -toolchain")
	flags.StringVar(&opts.Destination, "destination", "", "value of -destination (default: generic/platform=<platform>)")
	flags.StringVar(&opts.Xcconfig, "xcconfig", "", "path of an .xcconfig file")
	flags.StringVar(&opts.Xcargs, "xcargs", "", "raw arguments inserted before the archive action")
	flags.StringVar(&opts.BuildPath, "build-path", "", "archive directory (default: ~/Library/Developer/Xcode/Archives/<date>)")
	flags.StringVar(&opts.ArchivePath, "archive-path", "", "full .xcarchive path")
	flags.StringVar(&opts.DerivedDataPath, "derived-data-path", "", "value of -derivedDataPath")
	flags.BoolVar(&opts.ResultBundle, "result-bundle", false, "pass -resultBundlePath")
	flags.StringVar(&opts.ResultBundlePath, "result-bundle-path", "", "explicit result bundle path, implies --result-bundle")
	flags.StringVarP(&opts.OutputDirectory, "output-directory", "o", xcodebuild.DefaultOutputDirectory, "directory of the result bundle")
	flags.StringVarP(&opts.OutputName, "output-name", "n", "", "base name of the archive (default: the product name)")
	flags.StringVar(&opts.BuildlogPath, "buildlog-path", xcodebuild.DefaultBuildlogPath, "directory of the raw xcodebuild log")
	flags.BoolVar(&opts.Clean, "clean", false, "run the clean action before archive")
	flags.StringVar(&opts.CodesigningIdentity, "codesigning-identity", "", "CODE_SIGN_IDENTITY build setting")
	flags.BoolVar(&opts.DisableColors, "disable-colors", false, "pass --no-color to xcpretty")
	flags.BoolVar(&opts.SuppressXcodeOutput, "suppress-xcode-output", false, "redirect the formatted output to /dev/null")
	flags.BoolVar(&tokens, "tokens", false, "print one token per line")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logs")

	cmd.MarkFlagsMutuallyExclusive("project", "workspace")
	cmd.MarkFlagsOneRequired("project", "workspace")

	return cmd
}

func generateArchiveCommand(opts xcodebuild.Options, logger log.Logger, cmdFactory command.Factory, now func() time.Time) (xcodebuild.Command, error) {
	config, err := xcodebuild.NewConfig(opts, pathutil.NewPathChecker())
	if err != nil {
		return nil, err
	}

	opener := project.NewOpener(project.NewXcodebuildSettingsReader(cmdFactory), logger)
	descriptor, err := opener.Open(config.ContainerPath(), opts.Scheme, opts.Configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to open project (%s): %w", config.ContainerPath(), err)
	}

	generator, err := xcodebuild.NewGenerator(config, descriptor, pathutil.NewPathModifier(), now)
	if err != nil {
		return nil, err
	}

	generated := generator.Generate()
	if err := generated.Validate(); err != nil {
		return nil, err
	}

	return generated, nil
}
