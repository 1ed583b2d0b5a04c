package selector

import (
	"fmt"
	"slices"

	"github.com/macropower/autolabeler/pkg/gh"
	"github.com/macropower/autolabeler/pkg/match"
)

// newCommentsSelector builds a regex selector over the comments of an issue
// or pull request, one result per matching comment. When allowedRoles is
// non-empty, comments from authors outside those collaborator roles are
// skipped before matching; otherwise no role lookup is performed at all and
// the user_role metadata is left empty.
func newCommentsSelector(name string, allowedRoles []string, def any, opts Options) (Selector, error) {
	return newRegexSelector(name, []gh.Kind{gh.KindPullRequest, gh.KindIssue}, def, opts,
		func(t gh.Target) ([]matchItem, error) {
			c, ok := contribution(t)
			if !ok {
				return nil, nil
			}

			comments, err := c.Comments()
			if err != nil {
				return nil, fmt.Errorf("list comments: %w", err)
			}

			items := []matchItem{}

			for _, comment := range comments {
				role := ""
				if len(allowedRoles) != 0 {
					role, err = c.CollaboratorRole(comment.Author)
					if err != nil {
						return nil, fmt.Errorf("resolve role for %q: %w", comment.Author, err)
					}

					if !slices.Contains(allowedRoles, role) {
						continue
					}
				}

				body := comment.Body
				if body == "" {
					body = emptyComment
				}

				meta := match.New()
				meta.Set("id", comment.ID)
				meta.Set("user", comment.Author)
				meta.Set("user_role", role)
				meta.Set("created_at", comment.CreatedAt)

				items = append(items, matchItem{str: body, meta: meta})
			}

			return items, nil
		})
}

func compileCommentsSelector(def any, opts Options) (Selector, error) {
	return newCommentsSelector("comments", nil, def, opts)
}

func compileMaintainerCommentsSelector(def any, opts Options) (Selector, error) {
	return newCommentsSelector("maintainer_comments", []string{"admin"}, def, opts)
}
