package selector

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

// ErrConfig indicates an invalid selector definition: unknown selector
// names, missing or unsupported keys, malformed values. Always fatal at
// configuration load time.
var ErrConfig = errors.New("invalid selector configuration")

// Selector is a compiled, immutable rule bound to a declared set of target
// kinds. It is constructed once at configuration-load time and reused for
// every evaluation; Match never mutates the target.
type Selector interface {
	// Name is the configuration key this selector was registered under.
	Name() string
	// Accepts reports whether the selector can evaluate the given kind.
	Accepts(k gh.Kind) bool
	// Match evaluates the target and returns zero or more results. The
	// empty list, never nil semantics aside, doubles as "unsupported
	// target kind" and "no match".
	Match(t gh.Target) ([]*match.Result, error)
}

// Strategy combines a set of boolean sub-checks into one verdict.
type Strategy string

const (
	StrategyAll  Strategy = "all"
	StrategyAny  Strategy = "any"
	StrategyNone Strategy = "none"
)

// ParseStrategy validates a strategy token.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAll, StrategyAny, StrategyNone:
		return Strategy(s), nil
	}

	return "", fmt.Errorf("%w: unknown strategy %q, must be one of: all, any, none", ErrConfig, s)
}

// Evaluate applies the strategy over the given checks. An empty check list
// vacuously satisfies ALL and NONE, and fails ANY.
func (s Strategy) Evaluate(checks []bool) bool {
	switch s {
	case StrategyAll:
		return !slices.Contains(checks, false)
	case StrategyAny:
		return slices.Contains(checks, true)
	case StrategyNone:
		return !slices.Contains(checks, true)
	}

	return false
}

// Options carries the inherited extra options cascaded down the labeler
// tree (e.g. case_insensitive, selector_strategy).
type Options map[string]any

// Bool returns a boolean option, false when absent.
func (o Options) Bool(key string) bool {
	v, ok := o[key]
	if !ok {
		return false
	}

	b, _ := v.(bool)

	return b
}

// String returns a string option, empty when absent.
func (o Options) String(key string) string {
	v, ok := o[key]
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

// compiler builds one selector variant from its raw definition.
type compiler func(def any, opts Options) (Selector, error)

// registry maps every top-level selector name to its compiler. The facade
// selectors (repo, pr, issue) each restrict this vocabulary to the
// sub-selectors that make sense for their target kind. Populated in init
// because the facade compilers recurse into [Compile].
var registry map[string]compiler

func init() {
	registry = map[string]compiler{
		"repo":  compileRepoSelector,
		"pr":    compilePRSelector,
		"issue": compileIssueSelector,

		"title":               compileTitleSelector,
		"description":         compileDescriptionSelector,
		"author":              compileAuthorSelector,
		"author_role":         compileAuthorRoleSelector,
		"state":               compileStateSelector,
		"comments":            compileCommentsSelector,
		"maintainer_comments": compileMaintainerCommentsSelector,
		"source_repo":         compileSourceRepoSelector,
		"source_branch":       compileSourceBranchSelector,
		"target_branch":       compileTargetBranchSelector,
		"files":               compileFilesSelector,
		"diff":                compileDiffSelector,
		"last_activity":       compileLastActivitySelector,
		"last_comment":        compileLastCommentSelector,
		"merged":              compileMergedSelector,
		"draft":               compileDraftSelector,
		"approved":            compileApprovedSelector,
	}
}

// Compile builds the named selector from its raw configuration value.
func Compile(name string, def any, opts Options) (Selector, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown selector %q, supported selectors are: %v",
			ErrConfig, name, supportedNames(registry))
	}

	sel, err := c(def, opts)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", name, err)
	}

	return sel, nil
}

func supportedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// entry is one key/value pair from a mapping-shaped definition.
type entry struct {
	value any
	key   string
}

// asEntries flattens a mapping-shaped definition into ordered entries.
// Configuration decoded with ordered maps arrives as [yaml.MapSlice];
// plain maps are accepted for programmatic construction.
func asEntries(def any) ([]entry, bool) {
	switch v := def.(type) {
	case yaml.MapSlice:
		entries := make([]entry, 0, len(v))
		for _, item := range v {
			entries = append(entries, entry{
				key:   fmt.Sprintf("%v", item.Key),
				value: item.Value,
			})
		}

		return entries, true

	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		entries := make([]entry, 0, len(v))
		for _, k := range keys {
			entries = append(entries, entry{key: k, value: v[k]})
		}

		return entries, true

	default:
		return nil, false
	}
}

// product expands the per-selector match lists into every combination,
// preserving selector order. With lists of sizes M1..Mn the result has
// prod(Mi) tuples.
func product(lists [][]*match.Result) [][]*match.Result {
	if len(lists) == 0 {
		return nil
	}

	tuples := [][]*match.Result{{}}

	for _, list := range lists {
		next := make([][]*match.Result, 0, len(tuples)*len(list))

		for _, tuple := range tuples {
			for _, item := range list {
				combined := make([]*match.Result, len(tuple), len(tuple)+1)
				copy(combined, tuple)
				next = append(next, append(combined, item))
			}
		}

		tuples = next
	}

	return tuples
}
