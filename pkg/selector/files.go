package selector

import (
	"fmt"
	"regexp"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

// filesSelector matches the file paths of a repository tree or a pull
// request changeset against a path regex, one result per matching file.
// Results carry a "name_regex.full" reference key so sibling selectors can
// cross-reference the matched path.
type filesSelector struct {
	re *regexp.Regexp
}

func compileFilesSelector(def any, opts Options) (Selector, error) {
	entries, ok := asEntries(def)
	if !ok {
		return nil, fmt.Errorf("%w: definition must be a mapping with a 'name_regex' key, got %T", ErrConfig, def)
	}

	pattern := ""
	caseInsensitive := opts.Bool("case_insensitive")

	for _, e := range entries {
		switch e.key {
		case "name_regex":
			s, ok := e.value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: 'name_regex' must be a string", ErrConfig)
			}

			pattern = s

		case "case_insensitive":
			b, ok := e.value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: 'case_insensitive' must be a boolean", ErrConfig)
			}

			caseInsensitive = b

		default:
			return nil, fmt.Errorf("%w: unsupported key %q, supported keys are: name_regex, case_insensitive",
				ErrConfig, e.key)
		}
	}

	if pattern == "" {
		return nil, fmt.Errorf("%w: 'name_regex' is required", ErrConfig)
	}

	if caseInsensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: compile regex %q: %s", ErrConfig, pattern, err)
	}

	return &filesSelector{re: re}, nil
}

func (s *filesSelector) Name() string { return "files" }

func (s *filesSelector) Accepts(k gh.Kind) bool {
	return k == gh.KindRepository || k == gh.KindPullRequest
}

func (s *filesSelector) Match(t gh.Target) ([]*match.Result, error) {
	var (
		files []gh.File
		err   error
	)

	switch v := t.(type) {
	case gh.Repository:
		files, err = v.Files()
	case gh.PullRequest:
		files, err = v.Files()
	default:
		return []*match.Result{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	results := []*match.Result{}

	for _, f := range files {
		groups := matchGroups(s.re, f.Path)
		if groups == nil {
			continue
		}

		result := match.New(match.WithReferenceKey("name_regex.full"))
		result.Set("name_regex", groups)
		results = append(results, result)
	}

	return results, nil
}
