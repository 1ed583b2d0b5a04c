package labeler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/autolabeler/pkg/action"
	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/gh/ghtest"
	"github.com/macropower/autolabeler/pkg/labeler"
	"github.com/macropower/autolabeler/pkg/selector"
)

func mustSelector(t *testing.T, name string, def any) selector.Selector {
	t.Helper()

	sel, err := selector.Compile(name, def, nil)
	require.NoError(t, err)

	return sel
}

func TestStaticLabeler(t *testing.T) {
	t.Parallel()

	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "needs-triage",
		Color:       "yellow",
		Description: "Waiting for {opts.team} triage.",
		Options:     map[string]any{"team": "infra"},
	})
	require.NoError(t, err)

	for _, target := range []gh.Target{
		&ghtest.FakeRepo{Name: "owner/repo"},
		&ghtest.FakePR{},
		&ghtest.FakeIssue{},
	} {
		labels, err := l.Labels(target)
		require.NoError(t, err)
		require.Len(t, labels, 1)

		assert.Equal(t, "needs-triage", labels[0].Name)
		assert.Equal(t, "fbca04", labels[0].Color)
		assert.Equal(t, "Waiting for infra triage.", labels[0].Description)
	}
}

func TestSelectorLabelerNoMatches(t *testing.T) {
	t.Parallel()

	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "bug",
		Color:       "red",
		Description: "A bug report.",
		Selectors: []selector.Selector{
			mustSelector(t, "title", `^bug:`),
		},
	})
	require.NoError(t, err)

	pr := &ghtest.FakePR{FakeContribution: ghtest.FakeContribution{TitleText: "feat: shiny"}}

	labels, err := l.Labels(pr)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestSelectorLabelerRendersMatches(t *testing.T) {
	t.Parallel()

	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "kind/{title.groups[0]}",
		Color:       "0075ca",
		Description: "Classified from title: {title.full}",
		Selectors: []selector.Selector{
			mustSelector(t, "title", `^(\w+):`),
		},
	})
	require.NoError(t, err)

	pr := &ghtest.FakePR{FakeContribution: ghtest.FakeContribution{TitleText: "fix: the parser"}}

	labels, err := l.Labels(pr)
	require.NoError(t, err)
	require.Len(t, labels, 1)

	assert.Equal(t, "kind/fix", labels[0].Name)
	assert.Equal(t, "Classified from title: fix: the parser", labels[0].Description)
}

func TestSelectorLabelerCondition(t *testing.T) {
	t.Parallel()

	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "stale",
		Color:       "gray",
		Description: "No recent activity.",
		Condition:   `opts.enforce && last_activity.days_since >= 30`,
		Options:     map[string]any{"enforce": false},
		Selectors: []selector.Selector{
			mustSelector(t, "last_activity", 30),
		},
	})
	require.NoError(t, err)

	issue := &ghtest.FakeIssue{}

	labels, err := l.Labels(issue)
	require.NoError(t, err)
	assert.Empty(t, labels, "condition should discard the tuple")
}

func TestSelectorLabelerDedupFirstWins(t *testing.T) {
	t.Parallel()

	// Every comment match renders to the same name; only one label comes out.
	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "discussed",
		Color:       "blue",
		Description: "First comment id: {comments.id}",
		Selectors: []selector.Selector{
			mustSelector(t, "comments", `.*`),
		},
	})
	require.NoError(t, err)

	issue := &ghtest.FakeIssue{FakeContribution: ghtest.FakeContribution{
		CommentList: []gh.Comment{
			{ID: 1, Author: "a", Body: "first"},
			{ID: 2, Author: "b", Body: "second"},
		},
	}}

	labels, err := l.Labels(issue)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "First comment id: 1", labels[0].Description)
}

func TestSelectorLabelerProductSize(t *testing.T) {
	t.Parallel()

	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "file-{files.name_regex.full}-comment-{comments.id}",
		Color:       "green",
		Description: "cross product",
		Selectors: []selector.Selector{
			mustSelector(t, "files", map[string]any{"name_regex": `\.go$`}),
			mustSelector(t, "comments", `ping`),
		},
	})
	require.NoError(t, err)

	pr := &ghtest.FakePR{
		FakeContribution: ghtest.FakeContribution{
			CommentList: []gh.Comment{
				{ID: 1, Author: "a", Body: "ping"},
				{ID: 2, Author: "b", Body: "ping"},
				{ID: 3, Author: "c", Body: "ping"},
			},
		},
		FileList: []gh.File{{Path: "a.go"}, {Path: "b.go"}},
	}

	labels, err := l.Labels(pr)
	require.NoError(t, err)
	assert.Len(t, labels, 6)
}

func TestSelectorLabelerScopeErrorSkipsTuple(t *testing.T) {
	t.Parallel()

	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "broken-{nonexistent.field}",
		Color:       "red",
		Description: "never renders",
		Selectors: []selector.Selector{
			mustSelector(t, "title", `.*`),
		},
	})
	require.NoError(t, err)

	pr := &ghtest.FakePR{FakeContribution: ghtest.FakeContribution{TitleText: "anything"}}

	labels, err := l.Labels(pr)
	require.NoError(t, err)
	assert.Empty(t, labels, "scope errors discard the tuple, not the run")
}

func TestSelectorLabelerAction(t *testing.T) {
	t.Parallel()

	spec, err := action.ParseSpec(map[string]any{
		"perform": "close",
		"comment": "Closing stale issue, last touched {last_activity.ago}.",
	})
	require.NoError(t, err)

	l, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "stale",
		Color:       "gray",
		Description: "No recent activity.",
		Action:      spec,
		Selectors: []selector.Selector{
			mustSelector(t, "last_activity", 30),
		},
	})
	require.NoError(t, err)

	issue := &ghtest.FakeIssue{}

	labels, err := l.Labels(issue)
	require.NoError(t, err)
	require.Len(t, labels, 1)

	require.NotNil(t, labels[0].Action)
	assert.Equal(t, action.VerbClose, labels[0].Action.Verb)
	assert.Contains(t, labels[0].Action.Comment, "Closing stale issue")
}

func TestNewSelectorLabelerValidatesColor(t *testing.T) {
	t.Parallel()

	_, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "bad",
		Color:       "chartreuse-ish",
		Description: "x",
	})
	require.ErrorIs(t, err, labeler.ErrConfig)
}

func TestNewSelectorLabelerRejectsStaticCondition(t *testing.T) {
	t.Parallel()

	// A selector-free label always yields exactly one label; a condition
	// would let it yield zero, so the combination is a config error.
	_, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "needs-triage",
		Color:       "gray",
		Description: "x",
		Condition:   `opts.enforce`,
	})
	require.ErrorIs(t, err, labeler.ErrConfig)
	require.ErrorContains(t, err, "condition requires at least one selector")
}

func TestResolveColor(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in      string
		want    string
		wantErr bool
	}{
		"palette name":    {in: "red", want: "d73a4a"},
		"hex passthrough": {in: "AABB99", want: "aabb99"},
		"hash prefix":     {in: "#0075ca", want: "0075ca"},
		"too short":       {in: "abc", wantErr: true},
		"not hex":         {in: "zzzzzz", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := labeler.ResolveColor(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, labeler.ErrConfig)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrefixLabeler(t *testing.T) {
	t.Parallel()

	child, err := labeler.NewSelectorLabeler(labeler.SelectorLabelerConfig{
		Name:        "bug",
		Color:       "red",
		Description: "A bug.",
	})
	require.NoError(t, err)

	group, err := labeler.NewPrefixLabeler("kind", "/", []labeler.Labeler{child})
	require.NoError(t, err)

	labels, err := group.Labels(&ghtest.FakeIssue{})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "kind/bug", labels[0].Name)
}

func TestPrefixLabelerRequiresChildren(t *testing.T) {
	t.Parallel()

	_, err := labeler.NewPrefixLabeler("kind", "/", nil)
	require.ErrorIs(t, err, labeler.ErrConfig)
}

func TestLabelParamsEqualIgnoresAction(t *testing.T) {
	t.Parallel()

	a := &labeler.LabelParams{Name: "x", Color: "ffffff", Description: "d",
		Action: &action.Resolved{Verb: action.VerbClose}}
	b := &labeler.LabelParams{Name: "x", Color: "ffffff", Description: "d"}

	assert.True(t, a.Equal(b))

	c := &labeler.LabelParams{Name: "x", Color: "000000", Description: "d"}
	assert.False(t, a.Equal(c))
}
