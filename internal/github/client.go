package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/chainguard-dev/malcontent-action/internal/comment"
)

// Client wraps the gh CLI. All requests go through Runner so tests can swap
// in fixtures.
type Client struct {
	Runner Runner
}

func NewClient(runner Runner) *Client {
	return &Client{Runner: runner}
}

func (c *Client) CheckInstalled() error {
	_, err := exec.LookPath("gh")
	if err != nil {
		return fmt.Errorf("gh CLI not found in PATH")
	}
	return nil
}

func (c *Client) AuthStatus(ctx context.Context) error {
	_, err := c.Runner.Run(ctx, []string{"auth", "status"}, nil)
	return err
}

type PRView struct {
	Number     int     `json:"number"`
	URL        string  `json:"url"`
	BaseRefOid string  `json:"baseRefOid"`
	HeadRefOid string  `json:"headRefOid"`
	Repository RepoRef `json:"headRepository"`
}

type RepoRef struct {
	NameWithOwner string `json:"nameWithOwner"`
}

func (c *Client) PRView(ctx context.Context, repo string, number int) (PRView, error) {
	args := []string{"pr", "view", "-R", repo, strconv.Itoa(number), "--json", "number,url,baseRefOid,headRefOid,headRepository"}
	output, err := c.Runner.Run(ctx, args, nil)
	if err != nil {
		return PRView{}, err
	}
	var view PRView
	if err := json.Unmarshal(output, &view); err != nil {
		return PRView{}, fmt.Errorf("failed to decode gh pr view output: %w", err)
	}
	return view, nil
}

// ListComments returns the issue comments on a pull request, in listing
// order. Paginated so sentinel discovery sees the whole thread.
func (c *Client) ListComments(ctx context.Context, repo string, number int) ([]comment.Comment, error) {
	endpoint := fmt.Sprintf("repos/%s/issues/%d/comments", repo, number)
	output, err := c.Runner.Run(ctx, []string{"api", "--paginate", endpoint}, nil)
	if err != nil {
		return nil, err
	}
	var comments []comment.Comment
	if err := json.Unmarshal(output, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comment listing: %w", err)
	}
	return comments, nil
}

type commentBody struct {
	Body string `json:"body"`
}

func (c *Client) CreateComment(ctx context.Context, repo string, number int, body string) error {
	endpoint := fmt.Sprintf("repos/%s/issues/%d/comments", repo, number)
	payload, err := json.Marshal(commentBody{Body: body})
	if err != nil {
		return fmt.Errorf("marshal comment body: %w", err)
	}
	_, err = c.Runner.Run(ctx, []string{"api", "-X", "POST", endpoint, "--input", "-"}, payload)
	return err
}

func (c *Client) UpdateComment(ctx context.Context, repo string, id int64, body string) error {
	endpoint := fmt.Sprintf("repos/%s/issues/comments/%d", repo, id)
	payload, err := json.Marshal(commentBody{Body: body})
	if err != nil {
		return fmt.Errorf("marshal comment body: %w", err)
	}
	_, err = c.Runner.Run(ctx, []string{"api", "-X", "PATCH", endpoint, "--input", "-"}, payload)
	return err
}

// ApplyCommentAction executes a reconciler decision against the thread.
func (c *Client) ApplyCommentAction(ctx context.Context, repo string, number int, action comment.Action) error {
	switch action.Kind {
	case comment.ActionCreate:
		return c.CreateComment(ctx, repo, number, action.Body)
	case comment.ActionUpdate:
		return c.UpdateComment(ctx, repo, action.CommentID, action.Body)
	default:
		return nil
	}
}

var prRefRe = regexp.MustCompile(`^([^/]+/[^#]+)#([0-9]+)$`)

// ParsePR accepts OWNER/REPO#N or a pull request URL.
func ParsePR(ref string) (repo string, number int, err error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		parsed, parseErr := url.Parse(ref)
		if parseErr != nil {
			return "", 0, fmt.Errorf("invalid PR URL")
		}
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) < 4 || parts[2] != "pull" {
			return "", 0, fmt.Errorf("invalid PR URL")
		}
		repo = fmt.Sprintf("%s/%s", parts[0], parts[1])
		number, err = strconv.Atoi(parts[3])
		if err != nil {
			return "", 0, fmt.Errorf("invalid PR URL")
		}
		return repo, number, nil
	}

	matches := prRefRe.FindStringSubmatch(ref)
	if len(matches) != 3 {
		return "", 0, fmt.Errorf("invalid PR reference")
	}
	number, err = strconv.Atoi(matches[2])
	if err != nil {
		return "", 0, fmt.Errorf("invalid PR reference")
	}
	return matches[1], number, nil
}
