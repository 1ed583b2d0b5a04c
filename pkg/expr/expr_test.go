package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/autolabeler/pkg/expr"
)

func TestSandbox_Evaluate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		scope   map[string]any
		want    any
		wantErr error
		in      string
	}{
		"arithmetic": {
			in:    "1 + 1",
			scope: map[string]any{},
			want:  int64(2),
		},
		"scope name": {
			in:    "a",
			scope: map[string]any{"a": "x"},
			want:  "x",
		},
		"attribute access": {
			in:    "a.b",
			scope: map[string]any{"a": map[string]any{"b": "x"}},
			want:  "x",
		},
		"subscript access": {
			in:    `a["b"]`,
			scope: map[string]any{"a": map[string]any{"b": int64(7)}},
			want:  int64(7),
		},
		"comparison": {
			in:    "total >= 10",
			scope: map[string]any{"total": int64(15)},
			want:  true,
		},
		"string method": {
			in:    `title.contains("fix")`,
			scope: map[string]any{"title": "fix: thing"},
			want:  true,
		},
		"comprehension": {
			in:    "items.exists(i, i > 2)",
			scope: map[string]any{"items": []any{int64(1), int64(3)}},
			want:  true,
		},
		"undefined name": {
			in:      "missing",
			scope:   map[string]any{},
			wantErr: expr.ErrScope,
		},
		"undefined function": {
			in:      "shell('rm -rf /')",
			scope:   map[string]any{},
			wantErr: expr.ErrScope,
		},
		"bad syntax": {
			in:      "a ++ b",
			scope:   map[string]any{"a": 1, "b": 2},
			wantErr: expr.ErrSyntax,
		},
		"missing nested key": {
			in:      "a.b",
			scope:   map[string]any{"a": map[string]any{"c": 1}},
			wantErr: expr.ErrScope,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := expr.NewSandbox()

			got, err := s.Evaluate(tc.in, tc.scope)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSandbox_Render(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		scope   map[string]any
		wantErr error
		in      string
		want    string
	}{
		"plain text": {
			in:    "no spans here",
			scope: map[string]any{},
			want:  "no spans here",
		},
		"arithmetic span": {
			in:    "prefix {1+1} suffix",
			scope: map[string]any{},
			want:  "prefix 2 suffix",
		},
		"attribute span": {
			in:    "{a.b}",
			scope: map[string]any{"a": map[string]any{"b": "x"}},
			want:  "x",
		},
		"multiple spans": {
			in:    "{a}-{b}",
			scope: map[string]any{"a": "left", "b": "right"},
			want:  "left-right",
		},
		"nested braces in span": {
			in:    `{ {"k": "v"}["k"] }`,
			scope: map[string]any{},
			want:  "v",
		},
		"escaped braces": {
			in:    "literal {{braces}}",
			scope: map[string]any{},
			want:  "literal {braces}",
		},
		"missing name": {
			in:      "{missing}",
			scope:   map[string]any{},
			wantErr: expr.ErrScope,
		},
		"unterminated brace": {
			in:      "{a",
			scope:   map[string]any{"a": 1},
			wantErr: expr.ErrSyntax,
		},
		"stray close brace": {
			in:      "a}",
			scope:   map[string]any{"a": 1},
			wantErr: expr.ErrSyntax,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := expr.NewSandbox()

			got, err := s.Render(tc.in, tc.scope)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSandbox_Render_Idempotent(t *testing.T) {
	t.Parallel()

	s := expr.NewSandbox()
	scope := map[string]any{"pr": map[string]any{"title": "feat: render"}}

	first, err := s.Render("label for {pr.title}", scope)
	require.NoError(t, err)

	second, err := s.Render("label for {pr.title}", scope)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSandbox_Define(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		scope   map[string]any
		want    map[string]any
		wantErr error
		in      string
		allowed []string
	}{
		"literal values": {
			in: "answer: 42\nflag: true",
			want: map[string]any{
				"answer": int64(42),
				"flag":   true,
			},
		},
		"expression value": {
			in:   `greeting: "'hello ' + 'world'"`,
			want: map[string]any{"greeting": "hello world"},
		},
		"definitions reference earlier definitions": {
			in:   "base: 10\ndoubled: base * 2",
			want: map[string]any{"base": int64(10), "doubled": int64(20)},
		},
		"allowed import": {
			in:      "who: author",
			scope:   map[string]any{"author": "octocat"},
			allowed: []string{"author"},
			want:    map[string]any{"who": "octocat"},
		},
		"import not on allow-list": {
			in:      "who: author",
			scope:   map[string]any{"author": "octocat"},
			wantErr: expr.ErrImportPolicy,
		},
		"disallowed import next to allowed one": {
			in:      "who: author + '/' + source_repo",
			scope:   map[string]any{"author": "octocat", "source_repo": "hello-world"},
			allowed: []string{"author"},
			wantErr: expr.ErrImportPolicy,
		},
		"undefined reference": {
			in:      "who: nobody",
			wantErr: expr.ErrScope,
		},
		"map literal": {
			in: "palette:\n  bug: d73a4a\n  docs: 0075ca",
			want: map[string]any{
				"palette": map[string]any{"bug": "d73a4a", "docs": "0075ca"},
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := expr.NewSandbox()

			got, err := s.Define(tc.in, tc.scope, tc.allowed)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsTruthy(t *testing.T) {
	t.Parallel()

	assert.True(t, expr.IsTruthy(true))
	assert.True(t, expr.IsTruthy("x"))
	assert.True(t, expr.IsTruthy(int64(1)))
	assert.False(t, expr.IsTruthy(false))
	assert.False(t, expr.IsTruthy(nil))
	assert.False(t, expr.IsTruthy(""))
	assert.False(t, expr.IsTruthy(int64(0)))
	assert.False(t, expr.IsTruthy([]any{}))
}
