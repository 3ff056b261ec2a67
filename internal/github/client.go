// Package github posts build diagnoses as pull request or issue comments.
//
// One comment per pull request: a later diagnosis edits the earlier
// comment, found by Marker, instead of piling up new ones.
package github

import (
	"context"
	"fmt"
	"strings"

	gogithub "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

// Marker is hidden in every comment body to recognize our own comments.
const Marker = "<!-- gopherdoctor:diagnosis -->"

// CommentClient comments on one pull request or issue.
type CommentClient struct {
	gh     *gogithub.Client
	Owner  string
	Repo   string
	Number int
}

// NewCommentClient creates an authenticated client for "owner/repo" using a
// personal access token, GitHub App installation token or the Actions
// GITHUB_TOKEN. baseURL targets GitHub Enterprise; empty means github.com.
func NewCommentClient(token, repo string, number int, baseURL string) (*CommentClient, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	gh := gogithub.NewClient(tc)
	if baseURL != "" {
		if gh, err = gh.WithEnterpriseURLs(baseURL, baseURL); err != nil {
			return nil, fmt.Errorf("github base URL %q: %w", baseURL, err)
		}
	}
	return &CommentClient{gh: gh, Owner: owner, Repo: name, Number: number}, nil
}

// Report creates the diagnosis comment, or updates the one left by an
// earlier run.
func (c *CommentClient) Report(ctx context.Context, d *llm.Diagnosis) error {
	body := BuildCommentBody(d)

	existing, err := c.findComment(ctx)
	if err != nil {
		return fmt.Errorf("listing comments on %s/%s#%d: %w", c.Owner, c.Repo, c.Number, err)
	}
	if existing != 0 {
		if _, _, err := c.gh.Issues.EditComment(ctx, c.Owner, c.Repo, existing, &gogithub.IssueComment{Body: &body}); err != nil {
			return fmt.Errorf("updating comment %d: %w", existing, err)
		}
		return nil
	}
	if _, _, err := c.gh.Issues.CreateComment(ctx, c.Owner, c.Repo, c.Number, &gogithub.IssueComment{Body: &body}); err != nil {
		return fmt.Errorf("commenting on %s/%s#%d: %w", c.Owner, c.Repo, c.Number, err)
	}
	return nil
}

// findComment returns the ID of our earlier comment, or 0.
func (c *CommentClient) findComment(ctx context.Context) (int64, error) {
	opts := &gogithub.IssueListCommentsOptions{ListOptions: gogithub.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, c.Owner, c.Repo, c.Number, opts)
		if err != nil {
			return 0, err
		}
		for _, cm := range comments {
			if strings.Contains(cm.GetBody(), Marker) {
				return cm.GetID(), nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return 0, nil
		}
		opts.Page = resp.NextPage
	}
}

// BuildCommentBody produces the markdown comment for d.
func BuildCommentBody(d *llm.Diagnosis) string {
	var sb strings.Builder
	sb.WriteString(Marker + "\n")
	sb.WriteString("## 🩺 GopherDoctor build diagnosis\n\n")

	sb.WriteString(fmt.Sprintf("**Failure:** `%s` in `%s`\n\n", d.Failure.Name, d.Failure.Location))
	sb.WriteString("<details><summary>Build error</summary>\n\n")
	sb.WriteString("```text\n")
	sb.WriteString(strings.TrimRight(d.Failure.Message, "\n"))
	sb.WriteString("\n```\n\n</details>\n\n")

	sb.WriteString("### Suggested fix\n")
	sb.WriteString(strings.TrimRight(d.Advice, "\n") + "\n\n")

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("<sub>Diagnosis `%s` by the %s provider at %s. Review before applying.</sub>\n",
		d.ID, d.Provider, d.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")))

	return sb.String()
}

// SplitRepo splits "owner/repo" into (owner, repo).
// Returns an error if the format is invalid.
func SplitRepo(gitRepo string) (owner, repo string, err error) {
	parts := strings.SplitN(gitRepo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q: expected \"owner/repo\"", gitRepo)
	}
	return parts[0], parts[1], nil
}
