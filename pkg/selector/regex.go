package selector

import (
	"fmt"
	"regexp"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

const (
	// Fallback strings keep regex selectors usable against absent fields.
	noTitle       = "NOTITLE"
	noDescription = "NODESCRIPTION"
	emptyComment  = "EMPTY"
)

// matchItem is one string extracted from the target, plus metadata merged
// verbatim into the result on a hit.
type matchItem struct {
	meta *match.Result
	str  string
}

// itemsFunc extracts the strings a regex selector tests, one per relevant
// item (the title, each comment body, and so on).
type itemsFunc func(t gh.Target) ([]matchItem, error)

// regexSelector tests extracted strings against an ordered list of regexes
// under a strategy. One result is produced per item that satisfies the
// strategy, carrying the match-group breakdown of every matching regex.
type regexSelector struct {
	items           itemsFunc
	name            string
	patterns        []string
	regexps         []*regexp.Regexp
	kinds           []gh.Kind
	strategy        Strategy
	caseInsensitive bool
}

// regexDef is the parsed form of a regex selector definition.
type regexDef struct {
	patterns        []string
	strategy        Strategy
	caseInsensitive bool
}

// parseRegexDef accepts nil (match-everything), a single pattern, a list of
// patterns, or a mapping with regexes / strategy / case_insensitive keys.
func parseRegexDef(def any, opts Options) (regexDef, error) {
	out := regexDef{
		patterns:        []string{".*"},
		strategy:        StrategyAny,
		caseInsensitive: opts.Bool("case_insensitive"),
	}

	switch v := def.(type) {
	case nil:

	case string:
		out.patterns = []string{v}

	case []any:
		patterns := make([]string, 0, len(v))

		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return regexDef{}, fmt.Errorf("%w: regex list items must be strings, got %v (%T)", ErrConfig, item, item)
			}

			patterns = append(patterns, s)
		}

		out.patterns = patterns

	default:
		entries, ok := asEntries(def)
		if !ok {
			return regexDef{}, fmt.Errorf("%w: definition must be a string, list, or mapping, got %T", ErrConfig, def)
		}

		found := false

		for _, e := range entries {
			switch e.key {
			case "regexes":
				list, ok := e.value.([]any)
				if !ok {
					return regexDef{}, fmt.Errorf("%w: 'regexes' must be a list", ErrConfig)
				}

				patterns := make([]string, 0, len(list))
				for _, item := range list {
					s, ok := item.(string)
					if !ok {
						return regexDef{}, fmt.Errorf("%w: regex list items must be strings", ErrConfig)
					}

					patterns = append(patterns, s)
				}

				out.patterns = patterns
				found = true

			case "strategy":
				s, _ := e.value.(string)

				strategy, err := ParseStrategy(s)
				if err != nil {
					return regexDef{}, err
				}

				out.strategy = strategy

			case "case_insensitive":
				b, ok := e.value.(bool)
				if !ok {
					return regexDef{}, fmt.Errorf("%w: 'case_insensitive' must be a boolean", ErrConfig)
				}

				out.caseInsensitive = b

			default:
				return regexDef{}, fmt.Errorf("%w: unsupported key %q, supported keys are: regexes, strategy, case_insensitive",
					ErrConfig, e.key)
			}
		}

		if !found {
			return regexDef{}, fmt.Errorf("%w: mapping definition must contain a 'regexes' key", ErrConfig)
		}
	}

	return out, nil
}

func newRegexSelector(name string, kinds []gh.Kind, def any, opts Options, items itemsFunc) (Selector, error) {
	parsed, err := parseRegexDef(def, opts)
	if err != nil {
		return nil, err
	}

	regexps := make([]*regexp.Regexp, 0, len(parsed.patterns))

	for _, pattern := range parsed.patterns {
		if parsed.caseInsensitive {
			pattern = "(?i)" + pattern
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: compile regex %q: %s", ErrConfig, pattern, err)
		}

		regexps = append(regexps, re)
	}

	return &regexSelector{
		name:            name,
		kinds:           kinds,
		patterns:        parsed.patterns,
		regexps:         regexps,
		strategy:        parsed.strategy,
		caseInsensitive: parsed.caseInsensitive,
		items:           items,
	}, nil
}

func (s *regexSelector) Name() string { return s.name }

func (s *regexSelector) Accepts(k gh.Kind) bool {
	for _, kind := range s.kinds {
		if kind == k {
			return true
		}
	}

	return false
}

func (s *regexSelector) Match(t gh.Target) ([]*match.Result, error) {
	if !s.Accepts(t.Kind()) {
		return []*match.Result{}, nil
	}

	items, err := s.items(t)
	if err != nil {
		return nil, err
	}

	results := []*match.Result{}

	for _, item := range items {
		groups := make([]*match.Result, len(s.regexps))
		checks := make([]bool, len(s.regexps))

		for i, re := range s.regexps {
			groups[i] = matchGroups(re, item.str)
			checks[i] = groups[i] != nil
		}

		if !s.strategy.Evaluate(checks) {
			continue
		}

		result := match.New()
		result.Set("strategy", string(s.strategy))
		result.Set("case_insensitive", s.caseInsensitive)
		result.Set("full", item.str)

		// The first matching regex doubles as the unnumbered breakdown.
		if groups[0] != nil {
			copyResult(result, groups[0])
		}

		for i, g := range groups {
			if g == nil {
				continue
			}

			m, _ := g.Get("match")
			gs, _ := g.Get("groups")
			result.Set(fmt.Sprintf("match%d", i), m)
			result.Set(fmt.Sprintf("groups%d", i), gs)
		}

		// Metadata keys never collide with the numbered match keys by
		// construction of the item extractors.
		if item.meta != nil {
			copyResult(result, item.meta)
		}

		results = append(results, result)
	}

	return results, nil
}

// matchGroups runs one regex over a value and returns the standard
// breakdown, or nil when the regex does not match.
func matchGroups(re *regexp.Regexp, value string) *match.Result {
	loc := re.FindStringSubmatchIndex(value)
	if loc == nil {
		return nil
	}

	sub := re.FindStringSubmatch(value)

	groups := make([]any, 0, len(sub)-1)
	for _, g := range sub[1:] {
		groups = append(groups, g)
	}

	r := match.New()
	r.Set("full", value)
	r.Set("match", sub[0])
	r.Set("groups", groups)

	return r
}

func copyResult(dst, src *match.Result) {
	for _, key := range src.Keys() {
		v, _ := src.Get(key)
		dst.Set(key, v)
	}
}

func contribution(t gh.Target) (gh.Contribution, bool) {
	c, ok := t.(gh.Contribution)

	return c, ok
}

func singleItem(str string) []matchItem {
	return []matchItem{{str: str}}
}

func compileTitleSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("title", []gh.Kind{gh.KindPullRequest, gh.KindIssue}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			c, ok := contribution(t)
			if !ok {
				return nil, nil
			}

			title := c.Title()
			if title == "" {
				title = noTitle
			}

			return singleItem(title), nil
		})
}

func compileDescriptionSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("description", []gh.Kind{gh.KindPullRequest, gh.KindIssue}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			c, ok := contribution(t)
			if !ok {
				return nil, nil
			}

			body := c.Body()
			if body == "" {
				body = noDescription
			}

			return singleItem(body), nil
		})
}

func compileAuthorSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("author", []gh.Kind{gh.KindPullRequest, gh.KindIssue}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			c, ok := contribution(t)
			if !ok {
				return nil, nil
			}

			return singleItem(c.Author()), nil
		})
}

func compileAuthorRoleSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("author_role", []gh.Kind{gh.KindPullRequest, gh.KindIssue}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			c, ok := contribution(t)
			if !ok {
				return nil, nil
			}

			role, err := c.AuthorRole()
			if err != nil {
				return nil, fmt.Errorf("resolve author role: %w", err)
			}

			return singleItem(role), nil
		})
}

func compileStateSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("state", []gh.Kind{gh.KindPullRequest, gh.KindIssue}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			c, ok := contribution(t)
			if !ok {
				return nil, nil
			}

			return singleItem(c.State()), nil
		})
}

func compileSourceRepoSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("source_repo", []gh.Kind{gh.KindPullRequest}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			pr, ok := t.(gh.PullRequest)
			if !ok {
				return nil, nil
			}

			return singleItem(pr.HeadRepo()), nil
		})
}

func compileSourceBranchSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("source_branch", []gh.Kind{gh.KindPullRequest}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			pr, ok := t.(gh.PullRequest)
			if !ok {
				return nil, nil
			}

			return singleItem(pr.HeadBranch()), nil
		})
}

func compileTargetBranchSelector(def any, opts Options) (Selector, error) {
	return newRegexSelector("target_branch", []gh.Kind{gh.KindPullRequest}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			pr, ok := t.(gh.PullRequest)
			if !ok {
				return nil, nil
			}

			return singleItem(pr.BaseBranch()), nil
		})
}
