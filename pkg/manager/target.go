package manager

import (
	"fmt"
	"strconv"
	"strings"
)

// TargetRef identifies what a run labels: a repository, or one issue or
// pull request within it.
type TargetRef struct {
	Owner  string
	Repo   string
	Type   string
	Number int
}

// IsRepo reports whether the target is the repository itself.
func (r TargetRef) IsRepo() bool { return r.Type == "" }

func (r TargetRef) String() string {
	if r.IsRepo() {
		return r.Owner + "/" + r.Repo
	}

	return fmt.Sprintf("%s/%s/%s/%d", r.Owner, r.Repo, r.Type, r.Number)
}

// ParseTarget parses a target path of the form
// "owner/repository[/issue/N|/pull/N]".
func ParseTarget(s string) (TargetRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 4 {
		return TargetRef{}, fmt.Errorf(
			"target must be a slash-separated path of the form owner/repository[/issue/N|/pull/N], got %q (%d elements)",
			s, len(parts))
	}

	ref := TargetRef{Owner: parts[0], Repo: parts[1]}
	if ref.Owner == "" || ref.Repo == "" {
		return TargetRef{}, fmt.Errorf("target owner and repository must not be empty, got %q", s)
	}

	if len(parts) == 2 {
		return ref, nil
	}

	switch parts[2] {
	case "issue", "pull":
		ref.Type = parts[2]
	case "issues", "pulls":
		return TargetRef{}, fmt.Errorf("batch targets (%q) are not supported, use issue/N or pull/N", parts[2])
	default:
		return TargetRef{}, fmt.Errorf("unsupported target type %q, must be one of: issue, pull", parts[2])
	}

	if len(parts) == 3 {
		return TargetRef{}, fmt.Errorf("target type %q requires a number, e.g. %s/1", ref.Type, s)
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil || number < 1 {
		return TargetRef{}, fmt.Errorf("target number must be a positive integer, got %q", parts[3])
	}

	ref.Number = number

	return ref, nil
}
