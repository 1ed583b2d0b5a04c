package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

type SyncArgs struct {
	*TargetArgs

	RunActions      bool
	RemoveUndefined bool
}

func NewSyncCmd(ta *TargetArgs) *cobra.Command {
	args := &SyncArgs{
		TargetArgs: ta,
	}

	cmd := &cobra.Command{
		Use:   "sync <target>",
		Short: "Apply the labels the rules produce to a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			m, err := args.NewManager(cmd.Context(), cmdArgs[0])
			if err != nil {
				return err
			}

			labels, err := m.Sync(cmd.Context(), args.RunActions)
			if err != nil {
				return fmt.Errorf("sync labels: %w", err)
			}

			slog.Info("synced labels",
				slog.String("target", m.Target().String()),
				slog.Int("count", len(labels)),
			)

			if args.RemoveUndefined {
				err = m.RemoveUndefined(cmd.Context())
				if err != nil {
					return fmt.Errorf("remove undefined labels: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&args.RunActions, "run-post-labelling-actions", "a", false,
		"Run any post-labelling actions denoted by the 'action:' clauses defined on labels")
	cmd.Flags().BoolVar(&args.RemoveUndefined, "prune", false,
		"Remove labels from the target that no rule produces")

	return cmd
}
