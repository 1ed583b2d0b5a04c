package gh

import (
	"context"
	"sync"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

// APIClient is the narrow slice of the GitHub API this module consumes.
// It exists so tests can substitute a fake for [github.Client].
type APIClient interface {
	GetRepo(ctx context.Context, owner, repo string) (*github.Repository, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*github.CommitFile, error)
	ListPullRequestReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error)
	GetTree(ctx context.Context, owner, repo, ref string) (*github.Tree, error)
	GetPermissionLevel(ctx context.Context, owner, repo, user string) (string, error)

	ListLabels(ctx context.Context, owner, repo string) ([]*github.Label, error)
	CreateLabel(ctx context.Context, owner, repo string, label *github.Label) error
	EditLabel(ctx context.Context, owner, repo, name string, label *github.Label) error
	DeleteLabel(ctx context.Context, owner, repo, name string) error
	ListLabelsByIssue(ctx context.Context, owner, repo string, number int) ([]*github.Label, error)
	AddLabelsToIssue(ctx context.Context, owner, repo string, number int, labels []string) error
	RemoveLabelForIssue(ctx context.Context, owner, repo string, number int, label string) error

	EditIssueState(ctx context.Context, owner, repo string, number int, state string) error
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	ApprovePullRequest(ctx context.Context, owner, repo string, number int) error
}

// NewAPIClient creates an [APIClient] backed by the real GitHub API,
// authenticated with the given token. An empty token yields an
// unauthenticated client, good enough for reads on public repositories.
func NewAPIClient(ctx context.Context, token string) APIClient {
	if token == "" {
		return &apiClient{gh: github.NewClient(nil)}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	return &apiClient{gh: github.NewClient(oauth2.NewClient(ctx, ts))}
}

type apiClient struct {
	gh *github.Client
}

func (c *apiClient) GetRepo(ctx context.Context, owner, repo string) (*github.Repository, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)

	return r, err
}

func (c *apiClient) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, error) {
	i, _, err := c.gh.Issues.Get(ctx, owner, repo, number)

	return i, err
}

func (c *apiClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)

	return pr, err
}

func (c *apiClient) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	var all []*github.IssueComment

	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}

	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, comments...)

		if resp.NextPage == 0 {
			return all, nil
		}

		opts.Page = resp.NextPage
	}
}

func (c *apiClient) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*github.CommitFile, error) {
	var all []*github.CommitFile

	opts := &github.ListOptions{PerPage: 100}

	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, files...)

		if resp.NextPage == 0 {
			return all, nil
		}

		opts.Page = resp.NextPage
	}
}

func (c *apiClient) ListPullRequestReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	reviews, _, err := c.gh.PullRequests.ListReviews(ctx, owner, repo, number, nil)

	return reviews, err
}

func (c *apiClient) GetTree(ctx context.Context, owner, repo, ref string) (*github.Tree, error) {
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)

	return tree, err
}

func (c *apiClient) GetPermissionLevel(ctx context.Context, owner, repo, user string) (string, error) {
	perm, _, err := c.gh.Repositories.GetPermissionLevel(ctx, owner, repo, user)
	if err != nil {
		return "", err
	}

	return perm.GetPermission(), nil
}

func (c *apiClient) ListLabels(ctx context.Context, owner, repo string) ([]*github.Label, error) {
	var all []*github.Label

	opts := &github.ListOptions{PerPage: 100}

	for {
		labels, resp, err := c.gh.Issues.ListLabels(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, labels...)

		if resp.NextPage == 0 {
			return all, nil
		}

		opts.Page = resp.NextPage
	}
}

func (c *apiClient) CreateLabel(ctx context.Context, owner, repo string, label *github.Label) error {
	_, _, err := c.gh.Issues.CreateLabel(ctx, owner, repo, label)

	return err
}

func (c *apiClient) EditLabel(ctx context.Context, owner, repo, name string, label *github.Label) error {
	_, _, err := c.gh.Issues.EditLabel(ctx, owner, repo, name, label)

	return err
}

func (c *apiClient) DeleteLabel(ctx context.Context, owner, repo, name string) error {
	_, err := c.gh.Issues.DeleteLabel(ctx, owner, repo, name)

	return err
}

func (c *apiClient) ListLabelsByIssue(ctx context.Context, owner, repo string, number int) ([]*github.Label, error) {
	labels, _, err := c.gh.Issues.ListLabelsByIssue(ctx, owner, repo, number, nil)

	return labels, err
}

func (c *apiClient) AddLabelsToIssue(ctx context.Context, owner, repo string, number int, labels []string) error {
	_, _, err := c.gh.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)

	return err
}

func (c *apiClient) RemoveLabelForIssue(ctx context.Context, owner, repo string, number int, label string) error {
	_, err := c.gh.Issues.RemoveLabelForIssue(ctx, owner, repo, number, label)

	return err
}

func (c *apiClient) EditIssueState(ctx context.Context, owner, repo string, number int, state string) error {
	_, _, err := c.gh.Issues.Edit(ctx, owner, repo, number, &github.IssueRequest{State: github.String(state)})

	return err
}

func (c *apiClient) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: github.String(body)})

	return err
}

func (c *apiClient) ApprovePullRequest(ctx context.Context, owner, repo string, number int) error {
	event := "APPROVE"

	_, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, &github.PullRequestReviewRequest{
		Event: &event,
	})

	return err
}

// roleCache memoizes collaborator permission lookups for a single run.
// The key space is repository-scoped, so a cache must never outlive the
// evaluation run it was created for.
type roleCache struct {
	roles map[string]string
	mu    sync.Mutex
}

func newRoleCache() *roleCache {
	return &roleCache{roles: map[string]string{}}
}

func (rc *roleCache) get(login string, lookup func(string) (string, error)) (string, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if role, ok := rc.roles[login]; ok {
		return role, nil
	}

	role, err := lookup(login)
	if err != nil {
		return "", err
	}

	rc.roles[login] = role

	return role, nil
}
