package selector

import (
	"fmt"
	"math"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

// changeCount extracts one scalar from a diff stat.
type changeCount func(d gh.DiffStat) int

var changeTypes = map[string]changeCount{
	"total":     func(d gh.DiffStat) int { return d.Total() },
	"additions": func(d gh.DiffStat) int { return d.Additions },
	"deletions": func(d gh.DiffStat) int { return d.Deletions },
	"net":       func(d gh.DiffStat) int { return d.Net() },
}

// diffSelector matches pull requests whose changed-line count falls within
// [min, max). Bounds default to -inf / +inf; at least one must be set.
type diffSelector struct {
	changeType string
	min        float64
	max        float64
}

func compileDiffSelector(def any, _ Options) (Selector, error) {
	entries, ok := asEntries(def)
	if !ok {
		return nil, fmt.Errorf("%w: definition must be a mapping with min/max/type keys, got %T", ErrConfig, def)
	}

	s := &diffSelector{
		changeType: "total",
		min:        math.Inf(-1),
		max:        math.Inf(1),
	}
	bounded := false

	for _, e := range entries {
		switch e.key {
		case "min":
			v, err := asNumber(e.value)
			if err != nil {
				return nil, fmt.Errorf("%w: 'min': %s", ErrConfig, err)
			}

			s.min = v
			bounded = true

		case "max":
			v, err := asNumber(e.value)
			if err != nil {
				return nil, fmt.Errorf("%w: 'max': %s", ErrConfig, err)
			}

			s.max = v
			bounded = true

		case "type":
			t, ok := e.value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: 'type' must be a string", ErrConfig)
			}

			if _, ok := changeTypes[t]; !ok {
				return nil, fmt.Errorf("%w: unsupported change type %q, must be one of: %v",
					ErrConfig, t, supportedNames(changeTypes))
			}

			s.changeType = t

		default:
			return nil, fmt.Errorf("%w: unsupported key %q, supported keys are: min, max, type", ErrConfig, e.key)
		}
	}

	if !bounded {
		return nil, fmt.Errorf("%w: at least one of min/max is required", ErrConfig)
	}

	return s, nil
}

func asNumber(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	}

	return 0, fmt.Errorf("must be a number, got %v (%T)", v, v)
}

func (s *diffSelector) Name() string { return "diff" }

func (s *diffSelector) Accepts(k gh.Kind) bool { return k == gh.KindPullRequest }

func (s *diffSelector) Match(t gh.Target) ([]*match.Result, error) {
	pr, ok := t.(gh.PullRequest)
	if !ok {
		return []*match.Result{}, nil
	}

	stat, err := pr.DiffStat()
	if err != nil {
		return nil, fmt.Errorf("diff stat: %w", err)
	}

	changes := float64(changeTypes[s.changeType](stat))
	if changes < s.min || changes >= s.max {
		return []*match.Result{}, nil
	}

	result := match.New()
	result.Set("min", s.min)
	result.Set("max", s.max)
	result.Set("type", s.changeType)
	result.Set("total", stat.Total())
	result.Set("additions", stat.Additions)
	result.Set("deletions", stat.Deletions)
	result.Set("net", stat.Net())

	files, err := pr.Files()
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	breakdown := match.New()
	for _, f := range files {
		per := match.New()
		per.Set("total", f.Additions+f.Deletions)
		per.Set("additions", f.Additions)
		per.Set("deletions", f.Deletions)
		per.Set("net", f.Additions-f.Deletions)
		breakdown.Set(f.Path, per)
	}

	result.Set("files", breakdown)

	return []*match.Result{result}, nil
}
