// Package cli implements the autolabeler command surface.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/autolabeler/pkg/log"
)

const (
	cmdName = "autolabeler"
	cmdDesc = `Rule-based labeler for GitHub repositories, issues, and pull requests.`

	cmdExamples = `  # Print the labels the rules produce for a pull request:
  autolabeler generate macropower/example/pull/42 --config labels.yaml

  # Apply labels to an issue:
  autolabeler sync macropower/example/issue/7 --config labels.yaml

  # Apply labels and run any post-labelling actions:
  autolabeler sync macropower/example/pull/42 --config labels.yaml -a

  # Sync the label definitions of a repository:
  autolabeler sync macropower/example --config labels.yaml

  # Remove every configured label from a repository:
  autolabeler purge macropower/example --config labels.yaml`
)

type RootArgs struct {
	LogLevel  string
	LogFormat string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	targetArgs := NewTargetArgs(args)

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
	}

	args.AddFlags(cmd)
	targetArgs.AddFlags(cmd)

	cmd.AddCommand(
		NewGenerateCmd(targetArgs),
		NewSyncCmd(targetArgs),
		NewPurgeCmd(targetArgs),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		return nil
	}
}
