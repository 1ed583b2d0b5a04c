package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/macropower/autolabeler/api"
	"github.com/macropower/autolabeler/pkg/config"
	"github.com/macropower/autolabeler/pkg/expr"
	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/labeler"
	"github.com/macropower/autolabeler/pkg/manager"
)

// TargetArgs carries the flags shared by every labelling command.
type TargetArgs struct {
	*RootArgs

	GitHubToken string
	ConfigPath  string
}

func NewTargetArgs(rootArgs *RootArgs) *TargetArgs {
	return &TargetArgs{
		RootArgs: rootArgs,
	}
}

func (ta *TargetArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(&ta.GitHubToken, "github-token", "t", "",
			"GitHub API token, falls back to $GITHUB_TOKEN")
	cmd.PersistentFlags().
		StringVarP(&ta.ConfigPath, "config", "l", "",
			"Path to the label configuration file")

	err := cmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

// NewManager loads the label configuration and constructs a manager for the
// given target string.
func (ta *TargetArgs) NewManager(ctx context.Context, target string) (*manager.Manager, error) {
	labelers, err := ta.loadLabelers()
	if err != nil {
		return nil, err
	}

	client := gh.NewAPIClient(ctx, ta.token())

	m, err := manager.New(client, target, labelers)
	if err != nil {
		return nil, fmt.Errorf("create manager: %w", err)
	}

	return m, nil
}

func (ta *TargetArgs) loadLabelers() ([]labeler.Labeler, error) {
	path := ta.ConfigPath
	if path == "" {
		defaultPath := api.GetConfigPath("labels.yaml")
		if _, err := os.Stat(defaultPath); err == nil {
			path = defaultPath
		}
	}

	if path == "" {
		// Without rules every command is a no-op on labels; still useful
		// for purge/remove flows driven purely by the target.
		slog.Warn("no label configuration provided")

		return nil, nil
	}

	cfg, err := config.LoadLabelConfig(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // The loader names the file.
	}

	labelers, err := labeler.Load(cfg.Labels, expr.NewSandbox())
	if err != nil {
		return nil, fmt.Errorf("load labelers: %w", err)
	}

	slog.Debug("loaded label configuration",
		slog.String("path", path),
		slog.Int("labelers", len(labelers)),
	)

	return labelers, nil
}

func (ta *TargetArgs) token() string {
	if ta.GitHubToken != "" {
		return ta.GitHubToken
	}

	return os.Getenv("GITHUB_TOKEN")
}
