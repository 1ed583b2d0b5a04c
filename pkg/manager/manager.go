// Package manager drives one labelling run end to end: it parses the
// target path, builds the object views, runs every labeler, and applies
// the resolved labels and post-label actions through the write side.
package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v55/github"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/autolabeler/pkg/action"
	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/labeler"
)

// Manager evaluates a set of labelers against one target and reconciles
// the outcome with the hosting service.
type Manager struct {
	client   gh.APIClient
	tracer   trace.Tracer
	labelers []labeler.Labeler
	ref      TargetRef
}

// New creates a manager for the given target path.
func New(client gh.APIClient, target string, labelers []labeler.Labeler) (*Manager, error) {
	ref, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	return &Manager{
		client:   client,
		tracer:   otel.Tracer("manager"),
		labelers: labelers,
		ref:      ref,
	}, nil
}

// Target returns the parsed target reference.
func (m *Manager) Target() TargetRef { return m.ref }

// view resolves the run's target object. The session carries the per-run
// role cache, so every operation builds a fresh one.
func (m *Manager) view(ctx context.Context) (gh.Target, error) {
	session := gh.NewSession(ctx, m.client, m.ref.Owner, m.ref.Repo)

	switch m.ref.Type {
	case "":
		return session.Repository()
	case "pull":
		return session.PullRequest(m.ref.Number)
	case "issue":
		return session.Issue(m.ref.Number)
	}

	return nil, fmt.Errorf("unsupported target type %q", m.ref.Type)
}

// Generate evaluates every labeler against the target and returns the
// resolved labels without mutating anything.
func (m *Manager) Generate(ctx context.Context) ([]*labeler.LabelParams, error) {
	ctx, span := m.tracer.Start(ctx, "generate", trace.WithAttributes(
		attribute.String("target", m.ref.String()),
	))
	defer span.End()

	target, err := m.view(ctx)
	if err != nil {
		return nil, err
	}

	labels := []*labeler.LabelParams{}

	for _, l := range m.labelers {
		resolved, err := l.Labels(target)
		if err != nil {
			return nil, err
		}

		labels = append(labels, resolved...)
	}

	slog.Debug("generated labels",
		slog.String("target", m.ref.String()),
		slog.Int("count", len(labels)),
	)

	return labels, nil
}

// Sync generates labels and applies them to the target: label definitions
// are created or updated on the repository, and issue or pull request
// targets additionally get the labels attached. With runActions set, the
// aggregated post-label action fires afterwards.
func (m *Manager) Sync(ctx context.Context, runActions bool) ([]*labeler.LabelParams, error) {
	ctx, span := m.tracer.Start(ctx, "sync", trace.WithAttributes(
		attribute.String("target", m.ref.String()),
		attribute.Bool("run_actions", runActions),
	))
	defer span.End()

	labels, err := m.Generate(ctx)
	if err != nil {
		return nil, err
	}

	applier := gh.NewApplier(m.client, m.ref.Owner, m.ref.Repo)

	err = applier.EnsureLabels(ctx, specs(labels))
	if err != nil {
		return nil, err
	}

	if !m.ref.IsRepo() {
		err = applier.ApplyLabels(ctx, m.ref.Number, names(labels))
		if err != nil {
			return nil, err
		}
	}

	if runActions {
		err = m.runActions(ctx, applier, labels)
		if err != nil {
			return nil, err
		}
	}

	return labels, nil
}

// runActions aggregates the actions of every triggered label and performs
// them. Contradictory verbs across labels are fatal for the target.
func (m *Manager) runActions(ctx context.Context, applier *gh.Applier, labels []*labeler.LabelParams) error {
	resolved := make([]*action.Resolved, 0, len(labels))
	for _, l := range labels {
		resolved = append(resolved, l.Action)
	}

	verb, comments, err := action.Aggregate(resolved)
	if err != nil {
		return fmt.Errorf("target %s: %w", m.ref, err)
	}

	if verb == "" && len(comments) == 0 {
		return nil
	}

	if m.ref.IsRepo() {
		slog.Warn("post-label actions are only supported on issues and pull requests",
			slog.String("target", m.ref.String()),
		)

		return nil
	}

	for _, comment := range comments {
		err := applier.Comment(ctx, m.ref.Number, comment)
		if err != nil {
			return err
		}
	}

	switch verb {
	case action.VerbOpen:
		return applier.SetState(ctx, m.ref.Number, "open")
	case action.VerbClose:
		return applier.SetState(ctx, m.ref.Number, "closed")
	case action.VerbApprove:
		if m.ref.Type != "pull" {
			return fmt.Errorf("target %s: action %q requires a pull request", m.ref, verb)
		}

		return applier.Approve(ctx, m.ref.Number)
	}

	return nil
}

// Purge removes every config-defined label from the target: label
// definitions from a repository target, attached labels from an issue or
// pull request target.
func (m *Manager) Purge(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "purge", trace.WithAttributes(
		attribute.String("target", m.ref.String()),
	))
	defer span.End()

	labels, err := m.Generate(ctx)
	if err != nil {
		return err
	}

	applier := gh.NewApplier(m.client, m.ref.Owner, m.ref.Repo)

	if m.ref.IsRepo() {
		return applier.DeleteLabels(ctx, names(labels))
	}

	return applier.RemoveLabelsFromIssue(ctx, m.ref.Number, names(labels))
}

// RemoveUndefined deletes labels present on the target that the
// configuration does not produce.
func (m *Manager) RemoveUndefined(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "remove-undefined", trace.WithAttributes(
		attribute.String("target", m.ref.String()),
	))
	defer span.End()

	labels, err := m.Generate(ctx)
	if err != nil {
		return err
	}

	defined := make(map[string]bool, len(labels))
	for _, l := range labels {
		defined[l.Name] = true
	}

	applier := gh.NewApplier(m.client, m.ref.Owner, m.ref.Repo)

	existing, err := m.existingLabelNames(ctx)
	if err != nil {
		return err
	}

	undefined := []string{}
	for _, name := range existing {
		if !defined[name] {
			undefined = append(undefined, name)
		}
	}

	if len(undefined) == 0 {
		return nil
	}

	slog.Info("removing undefined labels",
		slog.String("target", m.ref.String()),
		slog.Any("labels", undefined),
	)

	if m.ref.IsRepo() {
		return applier.DeleteLabels(ctx, undefined)
	}

	return applier.RemoveLabelsFromIssue(ctx, m.ref.Number, undefined)
}

func (m *Manager) existingLabelNames(ctx context.Context) ([]string, error) {
	var (
		labels []*github.Label
		err    error
	)

	if m.ref.IsRepo() {
		labels, err = m.client.ListLabels(ctx, m.ref.Owner, m.ref.Repo)
	} else {
		labels, err = m.client.ListLabelsByIssue(ctx, m.ref.Owner, m.ref.Repo, m.ref.Number)
	}

	if err != nil {
		return nil, fmt.Errorf("list labels for %s: %w", m.ref, err)
	}

	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.GetName())
	}

	return out, nil
}

func specs(labels []*labeler.LabelParams) []gh.LabelSpec {
	out := make([]gh.LabelSpec, 0, len(labels))
	for _, l := range labels {
		out = append(out, gh.LabelSpec{
			Name:        l.Name,
			Color:       l.Color,
			Description: l.Description,
		})
	}

	return out
}

func names(labels []*labeler.LabelParams) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.Name)
	}

	return out
}
