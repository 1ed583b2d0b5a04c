package selector

import (
	"fmt"
	"slices"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

// Facade sub-selector vocabularies. Each facade restricts the registry to
// the sub-selectors meaningful for its target kind.
var (
	repoVocabulary = []string{"files"}

	prVocabulary = []string{
		"author", "author_role", "title", "description",
		"comments", "maintainer_comments",
		"diff", "files",
		"last_activity", "last_comment",
		"state", "merged", "draft", "approved",
		"source_repo", "source_branch", "target_branch",
	}

	issueVocabulary = []string{
		"author", "title", "description",
		"comments", "maintainer_comments",
		"last_activity", "last_comment",
		"state",
	}
)

// multiSelector runs named sub-selectors against one target, applies a
// strategy over each sub-selector's match presence, and cross-products the
// individual match lists into namespaced results. Sub-selectors with no
// matches contribute an empty result to the product so expressions can test
// them without a scope error.
type multiSelector struct {
	name      string
	selectors []Selector
	kinds     []gh.Kind
	strategy  Strategy
}

func newMultiSelector(name string, kinds []gh.Kind, vocabulary []string, def any, opts Options) (Selector, error) {
	entries, ok := asEntries(def)
	if !ok {
		return nil, fmt.Errorf("%w: definition must be a mapping of sub-selectors, got %T", ErrConfig, def)
	}

	strategy := StrategyAny
	if s := opts.String("selector_strategy"); s != "" {
		parsed, err := ParseStrategy(s)
		if err != nil {
			return nil, err
		}

		strategy = parsed
	}

	selectors := []Selector{}

	for _, e := range entries {
		if e.key == "selector_strategy" {
			s, _ := e.value.(string)

			parsed, err := ParseStrategy(s)
			if err != nil {
				return nil, err
			}

			strategy = parsed

			continue
		}

		if !slices.Contains(vocabulary, e.key) {
			return nil, fmt.Errorf("%w: unsupported sub-selector %q, supported sub-selectors are: %v",
				ErrConfig, e.key, vocabulary)
		}

		sub, err := Compile(e.key, e.value, opts)
		if err != nil {
			return nil, err
		}

		selectors = append(selectors, sub)
	}

	if len(selectors) == 0 {
		return nil, fmt.Errorf("%w: at least one sub-selector is required", ErrConfig)
	}

	return &multiSelector{
		name:      name,
		selectors: selectors,
		kinds:     kinds,
		strategy:  strategy,
	}, nil
}

func (s *multiSelector) Name() string { return s.name }

func (s *multiSelector) Accepts(k gh.Kind) bool {
	return slices.Contains(s.kinds, k)
}

func (s *multiSelector) Match(t gh.Target) ([]*match.Result, error) {
	if !s.Accepts(t.Kind()) {
		return []*match.Result{}, nil
	}

	names := make([]string, 0, len(s.selectors))
	lists := make([][]*match.Result, 0, len(s.selectors))
	checks := make([]bool, 0, len(s.selectors))

	for _, sub := range s.selectors {
		matches, err := sub.Match(t)
		if err != nil {
			return nil, fmt.Errorf("sub-selector %q: %w", sub.Name(), err)
		}

		names = append(names, sub.Name())
		lists = append(lists, matches)
		checks = append(checks, len(matches) > 0)
	}

	if !s.strategy.Evaluate(checks) {
		return []*match.Result{}, nil
	}

	// Empty placeholders keep non-matching sub-selectors addressable in
	// downstream expressions.
	for i, list := range lists {
		if len(list) == 0 {
			lists[i] = []*match.Result{match.New()}
		}
	}

	results := []*match.Result{}

	for _, tuple := range product(lists) {
		result := match.New()
		for i, m := range tuple {
			result.Set(names[i], m)
		}

		results = append(results, result)
	}

	return results, nil
}

func compileRepoSelector(def any, opts Options) (Selector, error) {
	return newMultiSelector("repo", []gh.Kind{gh.KindRepository}, repoVocabulary, def, opts)
}

func compilePRSelector(def any, opts Options) (Selector, error) {
	return newMultiSelector("pr", []gh.Kind{gh.KindPullRequest}, prVocabulary, def, opts)
}

func compileIssueSelector(def any, opts Options) (Selector, error) {
	return newMultiSelector("issue", []gh.Kind{gh.KindIssue}, issueVocabulary, def, opts)
}
