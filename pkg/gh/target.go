// Package gh models the repository-hosted collaboration objects that rules
// evaluate against: repositories, pull requests, and issues. The read side
// is a set of object-view interfaces backed by the GitHub API; the write
// side is an [Applier] that creates labels, applies label sets, transitions
// state, and posts comments idempotently.
package gh

import "time"

// Kind identifies a target object kind. The set is closed; selectors
// declare the subset of kinds they accept and dispatch on it.
type Kind int

const (
	KindRepository Kind = iota
	KindPullRequest
	KindIssue
)

func (k Kind) String() string {
	switch k {
	case KindRepository:
		return "repository"
	case KindPullRequest:
		return "pull-request"
	case KindIssue:
		return "issue"
	}

	return "unknown"
}

// Target is one collaboration object a rule can evaluate against.
type Target interface {
	// Kind reports which member of the closed union this target is.
	Kind() Kind
	// Path is the slash-separated resource path, e.g. "owner/repo/pull/7".
	Path() string
}

// Comment is one comment on an issue or pull request.
type Comment struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    string
	Body      string
	ID        int64
}

// File is one file in a repository tree or a pull request changeset.
// Addition/deletion counts are only populated for pull request files.
type File struct {
	Path      string
	Additions int
	Deletions int
}

// DiffStat aggregates changed-line counts for a pull request.
type DiffStat struct {
	Additions int
	Deletions int
}

// Total returns additions plus deletions.
func (d DiffStat) Total() int {
	return d.Additions + d.Deletions
}

// Net returns additions minus deletions.
func (d DiffStat) Net() int {
	return d.Additions - d.Deletions
}

// Repository is the read-side view of a repository target.
type Repository interface {
	Target

	FullName() string
	// Files lists the repository's full file tree.
	Files() ([]File, error)
}

// Contribution is the surface shared by pull requests and issues.
type Contribution interface {
	Target

	Title() string
	Body() string
	Author() string
	// AuthorRole resolves the author's collaborator permission on the
	// hosting repository ("admin", "write", "read", "none").
	AuthorRole() (string, error)
	State() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Comments() ([]Comment, error)
	// CollaboratorRole resolves a user's permission on the hosting
	// repository. Implementations cache per run, keyed by login.
	CollaboratorRole(login string) (string, error)
}

// PullRequest is the read-side view of a pull request target.
type PullRequest interface {
	Contribution

	Merged() (bool, error)
	Draft() bool
	// Approved reports whether the PR has at least one review and every
	// review is an approval.
	Approved() (bool, error)
	HeadRepo() string
	HeadBranch() string
	BaseBranch() string
	// Files lists the changed files with per-file diff counts.
	Files() ([]File, error)
	DiffStat() (DiffStat, error)
}

// Issue is the read-side view of an issue target.
type Issue interface {
	Contribution
}
