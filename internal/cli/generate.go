package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/autolabeler/api"
	"github.com/macropower/autolabeler/pkg/labeler"
)

func NewGenerateCmd(ta *TargetArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <target>",
		Short: "Evaluate the rules against a target and print the resulting labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ta.NewManager(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			labels, err := m.Generate(cmd.Context())
			if err != nil {
				return fmt.Errorf("generate labels: %w", err)
			}

			out, err := api.MarshalYAML(labelDocs(labels))
			if err != nil {
				return fmt.Errorf("marshal labels: %w", err)
			}

			cmd.Print(string(out))

			return nil
		},
	}
}

type labelDoc struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func labelDocs(labels []*labeler.LabelParams) []labelDoc {
	docs := make([]labelDoc, 0, len(labels))
	for _, l := range labels {
		docs = append(docs, labelDoc{
			Name:        l.Name,
			Color:       l.Color,
			Description: l.Description,
		})
	}

	return docs
}
