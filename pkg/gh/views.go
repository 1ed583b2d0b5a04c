package gh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v55/github"
)

// Session scopes object views to a single evaluation run. It carries the
// run's context, the API client, and the per-run collaborator role cache.
// Sessions must not be shared across concurrent runs.
type Session struct {
	ctx    context.Context
	client APIClient
	roles  *roleCache
	owner  string
	repo   string
}

// NewSession creates a [Session] for the given repository.
func NewSession(ctx context.Context, client APIClient, owner, repo string) *Session {
	return &Session{
		ctx:    ctx,
		client: client,
		roles:  newRoleCache(),
		owner:  owner,
		repo:   repo,
	}
}

// Owner returns the repository owner login.
func (s *Session) Owner() string { return s.owner }

// Repo returns the repository name.
func (s *Session) Repo() string { return s.repo }

// Repository returns the view of the session's repository.
func (s *Session) Repository() (Repository, error) {
	repo, err := s.client.GetRepo(s.ctx, s.owner, s.repo)
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", s.owner, s.repo, err)
	}

	return &repoView{session: s, repo: repo}, nil
}

// PullRequest returns the view of one pull request.
func (s *Session) PullRequest(number int) (PullRequest, error) {
	pr, err := s.client.GetPullRequest(s.ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, fmt.Errorf("get pull request %s/%s#%d: %w", s.owner, s.repo, number, err)
	}

	return &prView{session: s, pr: pr, number: number}, nil
}

// Issue returns the view of one issue.
func (s *Session) Issue(number int) (Issue, error) {
	issue, err := s.client.GetIssue(s.ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, fmt.Errorf("get issue %s/%s#%d: %w", s.owner, s.repo, number, err)
	}

	return &issueView{session: s, issue: issue, number: number}, nil
}

func (s *Session) collaboratorRole(login string) (string, error) {
	return s.roles.get(login, func(user string) (string, error) {
		return s.client.GetPermissionLevel(s.ctx, s.owner, s.repo, user)
	})
}

func (s *Session) listComments(number int) ([]Comment, error) {
	raw, err := s.client.ListIssueComments(s.ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, fmt.Errorf("list comments for %s/%s#%d: %w", s.owner, s.repo, number, err)
	}

	comments := make([]Comment, 0, len(raw))
	for _, c := range raw {
		comments = append(comments, Comment{
			ID:        c.GetID(),
			Author:    c.GetUser().GetLogin(),
			Body:      c.GetBody(),
			CreatedAt: c.GetCreatedAt().Time,
			UpdatedAt: c.GetUpdatedAt().Time,
		})
	}

	return comments, nil
}

type repoView struct {
	session *Session
	repo    *github.Repository

	files []File
}

func (r *repoView) Kind() Kind       { return KindRepository }
func (r *repoView) Path() string     { return r.repo.GetFullName() }
func (r *repoView) FullName() string { return r.repo.GetFullName() }

func (r *repoView) Files() ([]File, error) {
	if r.files != nil {
		return r.files, nil
	}

	s := r.session

	tree, err := s.client.GetTree(s.ctx, s.owner, s.repo, r.repo.GetDefaultBranch())
	if err != nil {
		return nil, fmt.Errorf("get tree for %s/%s: %w", s.owner, s.repo, err)
	}

	files := []File{}
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			files = append(files, File{Path: entry.GetPath()})
		}
	}

	r.files = files

	return files, nil
}

type prView struct {
	session *Session
	pr      *github.PullRequest

	comments []Comment
	files    []File
	number   int
}

func (p *prView) Kind() Kind { return KindPullRequest }

func (p *prView) Path() string {
	return fmt.Sprintf("%s/%s/pull/%d", p.session.owner, p.session.repo, p.number)
}

func (p *prView) Title() string        { return p.pr.GetTitle() }
func (p *prView) Body() string         { return p.pr.GetBody() }
func (p *prView) Author() string       { return p.pr.GetUser().GetLogin() }
func (p *prView) State() string        { return p.pr.GetState() }
func (p *prView) CreatedAt() time.Time { return p.pr.GetCreatedAt().Time }
func (p *prView) UpdatedAt() time.Time { return p.pr.GetUpdatedAt().Time }
func (p *prView) Draft() bool          { return p.pr.GetDraft() }
func (p *prView) HeadRepo() string     { return p.pr.GetHead().GetRepo().GetName() }
func (p *prView) HeadBranch() string   { return p.pr.GetHead().GetRef() }
func (p *prView) BaseBranch() string   { return p.pr.GetBase().GetRef() }

func (p *prView) AuthorRole() (string, error) {
	return p.session.collaboratorRole(p.Author())
}

func (p *prView) CollaboratorRole(login string) (string, error) {
	return p.session.collaboratorRole(login)
}

func (p *prView) Merged() (bool, error) {
	return p.pr.GetMerged(), nil
}

func (p *prView) Approved() (bool, error) {
	s := p.session

	reviews, err := s.client.ListPullRequestReviews(s.ctx, s.owner, s.repo, p.number)
	if err != nil {
		return false, fmt.Errorf("list reviews for %s: %w", p.Path(), err)
	}

	if len(reviews) == 0 {
		return false, nil
	}

	for _, review := range reviews {
		if review.GetState() != "APPROVED" {
			return false, nil
		}
	}

	return true, nil
}

func (p *prView) Comments() ([]Comment, error) {
	if p.comments != nil {
		return p.comments, nil
	}

	comments, err := p.session.listComments(p.number)
	if err != nil {
		return nil, err
	}

	p.comments = comments

	return comments, nil
}

func (p *prView) Files() ([]File, error) {
	if p.files != nil {
		return p.files, nil
	}

	s := p.session

	raw, err := s.client.ListPullRequestFiles(s.ctx, s.owner, s.repo, p.number)
	if err != nil {
		return nil, fmt.Errorf("list files for %s: %w", p.Path(), err)
	}

	files := make([]File, 0, len(raw))
	for _, f := range raw {
		files = append(files, File{
			Path:      f.GetFilename(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}

	p.files = files

	return files, nil
}

func (p *prView) DiffStat() (DiffStat, error) {
	return DiffStat{
		Additions: p.pr.GetAdditions(),
		Deletions: p.pr.GetDeletions(),
	}, nil
}

type issueView struct {
	session *Session
	issue   *github.Issue

	comments []Comment
	number   int
}

func (i *issueView) Kind() Kind { return KindIssue }

func (i *issueView) Path() string {
	return fmt.Sprintf("%s/%s/issue/%d", i.session.owner, i.session.repo, i.number)
}

func (i *issueView) Title() string        { return i.issue.GetTitle() }
func (i *issueView) Body() string         { return i.issue.GetBody() }
func (i *issueView) Author() string       { return i.issue.GetUser().GetLogin() }
func (i *issueView) State() string        { return i.issue.GetState() }
func (i *issueView) CreatedAt() time.Time { return i.issue.GetCreatedAt().Time }
func (i *issueView) UpdatedAt() time.Time { return i.issue.GetUpdatedAt().Time }

func (i *issueView) AuthorRole() (string, error) {
	return i.session.collaboratorRole(i.Author())
}

func (i *issueView) CollaboratorRole(login string) (string, error) {
	return i.session.collaboratorRole(login)
}

func (i *issueView) Comments() ([]Comment, error) {
	if i.comments != nil {
		return i.comments, nil
	}

	comments, err := i.session.listComments(i.number)
	if err != nil {
		return nil, err
	}

	i.comments = comments

	return comments, nil
}
