// Package ghtest provides in-memory fakes of the gh object views for
// selector and labeler tests.
package ghtest

import (
	"time"

	"github.com/macropower/autolabeler/pkg/gh"
)

// FakeRepo is a [gh.Repository] backed by struct fields.
type FakeRepo struct {
	Name      string
	FileList  []gh.File
	FilesErr  error
	PathValue string
}

func (f *FakeRepo) Kind() gh.Kind { return gh.KindRepository }

func (f *FakeRepo) Path() string {
	if f.PathValue != "" {
		return f.PathValue
	}

	return f.Name
}

func (f *FakeRepo) FullName() string { return f.Name }

func (f *FakeRepo) Files() ([]gh.File, error) { return f.FileList, f.FilesErr }

// FakeContribution holds the fields shared by [FakePR] and [FakeIssue].
type FakeContribution struct {
	Created     time.Time
	Updated     time.Time
	Roles       map[string]string
	TitleText   string
	BodyText    string
	AuthorLogin string
	StateValue  string
	CommentList []gh.Comment
}

func (f *FakeContribution) Title() string        { return f.TitleText }
func (f *FakeContribution) Body() string         { return f.BodyText }
func (f *FakeContribution) Author() string       { return f.AuthorLogin }
func (f *FakeContribution) State() string        { return f.StateValue }
func (f *FakeContribution) CreatedAt() time.Time { return f.Created }
func (f *FakeContribution) UpdatedAt() time.Time { return f.Updated }

func (f *FakeContribution) Comments() ([]gh.Comment, error) { return f.CommentList, nil }

func (f *FakeContribution) AuthorRole() (string, error) {
	return f.CollaboratorRole(f.AuthorLogin)
}

func (f *FakeContribution) CollaboratorRole(login string) (string, error) {
	if role, ok := f.Roles[login]; ok {
		return role, nil
	}

	return "none", nil
}

// FakePR is a [gh.PullRequest] backed by struct fields.
type FakePR struct {
	FakeContribution

	HeadRepoName string
	HeadRef      string
	BaseRef      string
	FileList     []gh.File
	Diff         gh.DiffStat
	IsMerged     bool
	IsDraft      bool
	IsApproved   bool
}

func (f *FakePR) Kind() gh.Kind { return gh.KindPullRequest }
func (f *FakePR) Path() string  { return "owner/repo/pull/1" }

func (f *FakePR) Merged() (bool, error)   { return f.IsMerged, nil }
func (f *FakePR) Draft() bool             { return f.IsDraft }
func (f *FakePR) Approved() (bool, error) { return f.IsApproved, nil }

func (f *FakePR) HeadRepo() string   { return f.HeadRepoName }
func (f *FakePR) HeadBranch() string { return f.HeadRef }
func (f *FakePR) BaseBranch() string { return f.BaseRef }

func (f *FakePR) Files() ([]gh.File, error) { return f.FileList, nil }

func (f *FakePR) DiffStat() (gh.DiffStat, error) { return f.Diff, nil }

// FakeIssue is a [gh.Issue] backed by struct fields.
type FakeIssue struct {
	FakeContribution
}

func (f *FakeIssue) Kind() gh.Kind { return gh.KindIssue }
func (f *FakeIssue) Path() string  { return "owner/repo/issue/1" }
