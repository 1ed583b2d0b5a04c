package selector

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

// timestampFunc extracts the relevant last-update timestamp from an issue
// or pull request.
type timestampFunc func(c gh.Contribution) (time.Time, error)

// activitySelector matches issues and pull requests whose last update is at
// least daysSince days old. With daysSince zero it always matches,
// reporting the elapsed time.
type activitySelector struct {
	timestamp timestampFunc
	now       func() time.Time
	name      string
	daysSince int
}

func newActivitySelector(name string, def any, timestamp timestampFunc) (Selector, error) {
	days := 0

	switch v := def.(type) {
	case nil:
	case int:
		days = v
	case int64:
		days = int(v)
	case uint64:
		days = int(v)
	default:
		return nil, fmt.Errorf("%w: definition must be an integer number of days or null, got %v (%T)",
			ErrConfig, def, def)
	}

	return &activitySelector{
		name:      name,
		daysSince: days,
		timestamp: timestamp,
		now:       time.Now,
	}, nil
}

func (s *activitySelector) Name() string { return s.name }

func (s *activitySelector) Accepts(k gh.Kind) bool {
	return k == gh.KindPullRequest || k == gh.KindIssue
}

func (s *activitySelector) Match(t gh.Target) ([]*match.Result, error) {
	c, ok := t.(gh.Contribution)
	if !ok {
		return []*match.Result{}, nil
	}

	last, err := s.timestamp(c)
	if err != nil {
		return nil, err
	}

	delta := s.now().Sub(last)
	if s.daysSince > 0 && delta < time.Duration(s.daysSince)*24*time.Hour {
		return []*match.Result{}, nil
	}

	result := match.New()
	result.Set("timestamp", last)
	result.Set("days_since", s.daysSince)
	result.Set("delta", delta)
	result.Set("ago", humanize.Time(last))

	return []*match.Result{result}, nil
}

func compileLastActivitySelector(def any, _ Options) (Selector, error) {
	return newActivitySelector("last_activity", def, func(c gh.Contribution) (time.Time, error) {
		if updated := c.UpdatedAt(); !updated.IsZero() {
			return updated, nil
		}

		return c.CreatedAt(), nil
	})
}

func compileLastCommentSelector(def any, _ Options) (Selector, error) {
	return newActivitySelector("last_comment", def, func(c gh.Contribution) (time.Time, error) {
		comments, err := c.Comments()
		if err != nil {
			return time.Time{}, fmt.Errorf("list comments: %w", err)
		}

		last := c.CreatedAt()

		for _, comment := range comments {
			ts := comment.UpdatedAt
			if ts.IsZero() {
				ts = comment.CreatedAt
			}

			if ts.After(last) {
				last = ts
			}
		}

		return last, nil
	})
}
