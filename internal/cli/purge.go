package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func NewPurgeCmd(ta *TargetArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <target>",
		Short: "Remove every label the rules define from a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ta.NewManager(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			err = m.Purge(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge labels: %w", err)
			}

			slog.Info("purged labels", slog.String("target", m.Target().String()))

			return nil
		},
	}
}
