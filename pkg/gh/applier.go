package gh

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v55/github"
)

// LabelSpec is the write-side shape of one label: everything the hosting
// service needs to create or update a label definition.
type LabelSpec struct {
	Name        string
	Color       string
	Description string
}

// Applier performs the write-side label, state, and comment mutations for
// one repository. All operations are idempotent: re-applying the same
// inputs is a no-op.
type Applier struct {
	client APIClient
	owner  string
	repo   string
}

// NewApplier creates an [Applier] for the given repository.
func NewApplier(client APIClient, owner, repo string) *Applier {
	return &Applier{client: client, owner: owner, repo: repo}
}

// EnsureLabels creates or updates the given label definitions on the
// repository. Labels that already match are left untouched.
func (a *Applier) EnsureLabels(ctx context.Context, labels []LabelSpec) error {
	existing, err := a.client.ListLabels(ctx, a.owner, a.repo)
	if err != nil {
		return fmt.Errorf("list labels for %s/%s: %w", a.owner, a.repo, err)
	}

	existingByName := make(map[string]*github.Label, len(existing))
	for _, l := range existing {
		existingByName[l.GetName()] = l
	}

	for _, label := range labels {
		ghLabel := &github.Label{
			Name:        github.String(label.Name),
			Color:       github.String(label.Color),
			Description: github.String(label.Description),
		}

		current, ok := existingByName[label.Name]
		if !ok {
			err := a.client.CreateLabel(ctx, a.owner, a.repo, ghLabel)
			if err != nil {
				return fmt.Errorf("create label %q: %w", label.Name, err)
			}

			slog.Info("created label",
				slog.String("label", label.Name),
				slog.String("repo", a.owner+"/"+a.repo),
			)

			continue
		}

		if current.GetColor() == label.Color && current.GetDescription() == label.Description {
			continue
		}

		err := a.client.EditLabel(ctx, a.owner, a.repo, label.Name, ghLabel)
		if err != nil {
			return fmt.Errorf("update label %q: %w", label.Name, err)
		}

		slog.Info("updated label",
			slog.String("label", label.Name),
			slog.String("repo", a.owner+"/"+a.repo),
		)
	}

	return nil
}

// ApplyLabels attaches the named labels to an issue or pull request,
// skipping labels the target already carries.
func (a *Applier) ApplyLabels(ctx context.Context, number int, names []string) error {
	existing, err := a.client.ListLabelsByIssue(ctx, a.owner, a.repo, number)
	if err != nil {
		return fmt.Errorf("list labels for #%d: %w", number, err)
	}

	have := make(map[string]bool, len(existing))
	for _, l := range existing {
		have[l.GetName()] = true
	}

	missing := []string{}
	for _, name := range names {
		if !have[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	err = a.client.AddLabelsToIssue(ctx, a.owner, a.repo, number, missing)
	if err != nil {
		return fmt.Errorf("add labels to #%d: %w", number, err)
	}

	slog.Info("applied labels",
		slog.Int("number", number),
		slog.Any("labels", missing),
	)

	return nil
}

// DeleteLabels removes the named label definitions from the repository.
// Names that do not exist are logged and skipped.
func (a *Applier) DeleteLabels(ctx context.Context, names []string) error {
	existing, err := a.client.ListLabels(ctx, a.owner, a.repo)
	if err != nil {
		return fmt.Errorf("list labels for %s/%s: %w", a.owner, a.repo, err)
	}

	have := make(map[string]bool, len(existing))
	for _, l := range existing {
		have[l.GetName()] = true
	}

	for _, name := range names {
		if !have[name] {
			slog.Warn("requested deletion of non-existing label",
				slog.String("label", name),
			)

			continue
		}

		err := a.client.DeleteLabel(ctx, a.owner, a.repo, name)
		if err != nil {
			return fmt.Errorf("delete label %q: %w", name, err)
		}

		slog.Info("deleted label", slog.String("label", name))
	}

	return nil
}

// RemoveLabelsFromIssue detaches the named labels from an issue or pull
// request, ignoring labels it does not carry.
func (a *Applier) RemoveLabelsFromIssue(ctx context.Context, number int, names []string) error {
	existing, err := a.client.ListLabelsByIssue(ctx, a.owner, a.repo, number)
	if err != nil {
		return fmt.Errorf("list labels for #%d: %w", number, err)
	}

	have := make(map[string]bool, len(existing))
	for _, l := range existing {
		have[l.GetName()] = true
	}

	for _, name := range names {
		if !have[name] {
			continue
		}

		err := a.client.RemoveLabelForIssue(ctx, a.owner, a.repo, number, name)
		if err != nil {
			return fmt.Errorf("remove label %q from #%d: %w", name, number, err)
		}
	}

	return nil
}

// SetState transitions an issue or pull request to "open" or "closed".
func (a *Applier) SetState(ctx context.Context, number int, state string) error {
	err := a.client.EditIssueState(ctx, a.owner, a.repo, number, state)
	if err != nil {
		return fmt.Errorf("set state of #%d to %q: %w", number, state, err)
	}

	slog.Info("changed state",
		slog.Int("number", number),
		slog.String("state", state),
	)

	return nil
}

// Comment posts a comment on an issue or pull request.
func (a *Applier) Comment(ctx context.Context, number int, body string) error {
	err := a.client.CreateIssueComment(ctx, a.owner, a.repo, number, body)
	if err != nil {
		return fmt.Errorf("comment on #%d: %w", number, err)
	}

	return nil
}

// Approve submits an approving review on a pull request.
func (a *Applier) Approve(ctx context.Context, number int) error {
	err := a.client.ApprovePullRequest(ctx, a.owner, a.repo, number)
	if err != nil {
		return fmt.Errorf("approve #%d: %w", number, err)
	}

	slog.Info("approved pull request", slog.Int("number", number))

	return nil
}
