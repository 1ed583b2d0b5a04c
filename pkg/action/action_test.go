package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/autolabeler/pkg/action"
	"github.com/macropower/autolabeler/pkg/expr"
)

func TestParseSpec(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		def     map[string]any
		wantErr string
	}{
		"perform and comment": {
			def: map[string]any{"perform": "close", "comment": "Closing as stale."},
		},
		"perform only": {
			def: map[string]any{"perform": "open"},
		},
		"comment only": {
			def: map[string]any{"comment": "Thanks for the report!"},
		},
		"templated perform defers validation": {
			def: map[string]any{"perform": `{merged.check ? "close" : "open"}`},
		},
		"unsupported verb": {
			def:     map[string]any{"perform": "merge"},
			wantErr: "unsupported action",
		},
		"unsupported key": {
			def:     map[string]any{"perform": "close", "assign": "octocat"},
			wantErr: "unsupported action key",
		},
		"empty": {
			def:     map[string]any{},
			wantErr: "at least one of",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := action.ParseSpec(tc.def)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestSpecResolve(t *testing.T) {
	t.Parallel()

	sandbox := expr.NewSandbox()

	spec, err := action.ParseSpec(map[string]any{
		"perform": `{title.match == "stale" ? "close" : "open"}`,
		"comment": "Marked {title.match} by the bot.",
	})
	require.NoError(t, err)

	scope := map[string]any{
		"title": map[string]any{"match": "stale"},
	}

	resolved, err := spec.Resolve(sandbox, scope)
	require.NoError(t, err)
	assert.Equal(t, action.VerbClose, resolved.Verb)
	assert.Equal(t, "Marked stale by the bot.", resolved.Comment)
}

func TestSpecResolveScopeError(t *testing.T) {
	t.Parallel()

	sandbox := expr.NewSandbox()

	spec, err := action.ParseSpec(map[string]any{"comment": "value is {nope.field}"})
	require.NoError(t, err)

	_, err = spec.Resolve(sandbox, map[string]any{"title": "x"})
	require.ErrorIs(t, err, expr.ErrScope)
}

func TestSpecResolveBadRenderedVerb(t *testing.T) {
	t.Parallel()

	sandbox := expr.NewSandbox()

	spec, err := action.ParseSpec(map[string]any{"perform": `{verb}`})
	require.NoError(t, err)

	_, err = spec.Resolve(sandbox, map[string]any{"verb": "merge"})
	require.ErrorContains(t, err, "unsupported action")
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	verb, comments, err := action.Aggregate([]*action.Resolved{
		{Verb: action.VerbClose, Comment: "stale"},
		{Verb: action.VerbClose, Comment: "stale"},
		{Comment: "see you"},
		nil,
	})
	require.NoError(t, err)
	assert.Equal(t, action.VerbClose, verb)
	assert.Equal(t, []string{"stale", "see you"}, comments)
}

func TestAggregateConflict(t *testing.T) {
	t.Parallel()

	_, _, err := action.Aggregate([]*action.Resolved{
		{Verb: action.VerbOpen},
		{Verb: action.VerbClose},
	})
	require.ErrorIs(t, err, action.ErrConflict)
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	verb, comments, err := action.Aggregate(nil)
	require.NoError(t, err)
	assert.Equal(t, action.Verb(""), verb)
	assert.Empty(t, comments)
}
