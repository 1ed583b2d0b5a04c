package selector

import (
	"fmt"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

// booleanSelector matches pull requests on a single boolean flag. With a
// nil desired value it always produces one result reporting the flag; with
// a concrete desired value it produces a result only when the flag agrees.
type booleanSelector struct {
	check   func(pr gh.PullRequest) (bool, error)
	desired *bool
	name    string
}

func newBooleanSelector(name string, def any, check func(pr gh.PullRequest) (bool, error)) (Selector, error) {
	var desired *bool

	switch v := def.(type) {
	case nil:
	case bool:
		desired = &v
	default:
		return nil, fmt.Errorf("%w: definition must be a boolean or null, got %v (%T)", ErrConfig, def, def)
	}

	return &booleanSelector{name: name, desired: desired, check: check}, nil
}

func (s *booleanSelector) Name() string { return s.name }

func (s *booleanSelector) Accepts(k gh.Kind) bool { return k == gh.KindPullRequest }

func (s *booleanSelector) Match(t gh.Target) ([]*match.Result, error) {
	pr, ok := t.(gh.PullRequest)
	if !ok {
		return []*match.Result{}, nil
	}

	check, err := s.check(pr)
	if err != nil {
		return nil, err
	}

	if s.desired != nil && *s.desired != check {
		return []*match.Result{}, nil
	}

	result := match.New()
	result.Set("check", check)
	// Duplicated under "match" for consistency with the regex selectors.
	result.Set("match", check)

	return []*match.Result{result}, nil
}

func compileMergedSelector(def any, _ Options) (Selector, error) {
	return newBooleanSelector("merged", def, func(pr gh.PullRequest) (bool, error) {
		return pr.Merged()
	})
}

func compileDraftSelector(def any, _ Options) (Selector, error) {
	return newBooleanSelector("draft", def, func(pr gh.PullRequest) (bool, error) {
		return pr.Draft(), nil
	})
}

func compileApprovedSelector(def any, _ Options) (Selector, error) {
	return newBooleanSelector("approved", def, func(pr gh.PullRequest) (bool, error) {
		return pr.Approved()
	})
}
