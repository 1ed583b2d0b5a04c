package labeler_test

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/autolabeler/pkg/gh/ghtest"
	"github.com/macropower/autolabeler/pkg/labeler"
)

func decodeTree(t *testing.T, src string) any {
	t.Helper()

	var tree any

	err := yaml.UnmarshalWithOptions([]byte(src), &tree, yaml.UseOrderedMap())
	require.NoError(t, err)

	return tree
}

func TestLoadStaticLabel(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
needs-triage:
  color: yellow
  description: Waiting for triage.
`)

	labelers, err := labeler.Load(tree, nil)
	require.NoError(t, err)
	require.Len(t, labelers, 1)

	labels, err := labelers[0].Labels(&ghtest.FakeIssue{})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "needs-triage", labels[0].Name)
	assert.Equal(t, "fbca04", labels[0].Color)
}

func TestLoadPrefixGroup(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
kind:
  bug:
    color: red
    description: A bug report.
    selectors:
      title: '^bug:'
  feature:
    color: green
    description: A feature request.
    selectors:
      title: '^feat:'
`)

	labelers, err := labeler.Load(tree, nil)
	require.NoError(t, err)
	require.Len(t, labelers, 1)

	issue := &ghtest.FakeIssue{FakeContribution: ghtest.FakeContribution{TitleText: "bug: it broke"}}

	labels, err := labelers[0].Labels(issue)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "kind/bug", labels[0].Name)
}

func TestLoadOptionsInheritance(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
options:
  case_insensitive: true
group:
  shouty:
    color: orange
    description: Matched case-insensitively for {opts.team}.
    selectors:
      title: 'urgent'
  options:
    team: infra
`)

	labelers, err := labeler.Load(tree, nil)
	require.NoError(t, err)
	require.Len(t, labelers, 1)

	issue := &ghtest.FakeIssue{FakeContribution: ghtest.FakeContribution{TitleText: "URGENT: prod down"}}

	labels, err := labelers[0].Labels(issue)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "group/shouty", labels[0].Name)
	assert.Equal(t, "Matched case-insensitively for infra.", labels[0].Description)
}

func TestLoadOptionsDeepMerge(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
options:
  team:
    name: infra
    oncall: alice
group:
  options:
    team:
      oncall: bob
  static:
    color: blue
    description: '{opts.team.name} oncall is {opts.team.oncall}'
`)

	labelers, err := labeler.Load(tree, nil)
	require.NoError(t, err)
	require.Len(t, labelers, 1)

	labels, err := labelers[0].Labels(&ghtest.FakeIssue{})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "infra oncall is bob", labels[0].Description)
}

func TestLoadDefinitions(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
definitions: |
  team: '"platform"'
  salutation: '"Routed to " + team'
routed:
  color: purple
  description: '{salutation} by the bot.'
`)

	labelers, err := labeler.Load(tree, nil)
	require.NoError(t, err)
	require.Len(t, labelers, 1)

	labels, err := labelers[0].Labels(&ghtest.FakeIssue{})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "Routed to platform by the bot.", labels[0].Description)
}

func TestLoadRejectsUnknownLabelKey(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
bad:
  color: red
  description: x
  colour: red
`)

	_, err := labeler.Load(tree, nil)
	require.ErrorIs(t, err, labeler.ErrConfig)
	assert.ErrorContains(t, err, "colour")
}

func TestLoadRejectsEmptyPrefixGroup(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
group:
  options:
    a: b
`)

	_, err := labeler.Load(tree, nil)
	require.ErrorIs(t, err, labeler.ErrConfig)
}

func TestLoadActionSpec(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
stale:
  color: gray
  description: No activity for a month.
  selectors:
    last_activity: 30
  action:
    perform: close
    comment: Closing as stale.
`)

	labelers, err := labeler.Load(tree, nil)
	require.NoError(t, err)
	require.Len(t, labelers, 1)
}

func TestSplitScopes(t *testing.T) {
	t.Parallel()

	node := decodeTree(t, `
options:
  a: 1
definitions: |
  b: '2'
rest-one:
  color: red
  description: x
rest-two:
  color: blue
  description: y
`)

	opts, defs, rest, err := labeler.SplitScopes(node)
	require.NoError(t, err)
	assert.NotNil(t, opts)
	assert.Contains(t, defs, "b:")
	require.Len(t, rest, 2)
	assert.Equal(t, "rest-one", rest[0].Key)
	assert.Equal(t, "rest-two", rest[1].Key)
}

func TestLoadIntegration(t *testing.T) {
	t.Parallel()

	tree := decodeTree(t, `
kind:
  fix:
    color: d73a4a
    description: 'Fixes something: {title.groups[0]}'
    selectors:
      title: '^fix\((\w+)\)'
`)

	labelers, err := labeler.Load(tree, nil)
	require.NoError(t, err)

	pr := &ghtest.FakePR{FakeContribution: ghtest.FakeContribution{TitleText: "fix(parser): nil deref"}}

	var all []*labeler.LabelParams

	for _, l := range labelers {
		labels, err := l.Labels(pr)
		require.NoError(t, err)

		all = append(all, labels...)
	}

	require.Len(t, all, 1)
	assert.Equal(t, "kind/fix", all[0].Name)
	assert.Equal(t, "Fixes something: parser", all[0].Description)
}
