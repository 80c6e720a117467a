// Package bitbucket implements the RemotePRClient port against the Bitbucket
// Cloud 2.0 REST API.
package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gregjones/httpcache"

	"github.com/mfrayne/bitpane/internal/domain/model"
	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

const defaultBaseURL = "https://api.bitbucket.org/2.0"

// Compile-time interface satisfaction check.
var _ driven.RemotePRClient = (*Client)(nil)

// Client implements the driven.RemotePRClient port. Requests go through an
// httpcache memory transport so unchanged listings are answered from ETag
// conditional responses, with app-password basic auth per request.
type Client struct {
	http     *http.Client
	baseURL  string
	username string
	password string
}

// NewClient creates a Bitbucket Cloud client authenticated with an app
// password.
func NewClient(username, appPassword string) *Client {
	return &Client{
		http:     &http.Client{Transport: httpcache.NewMemoryCacheTransport()},
		baseURL:  defaultBaseURL,
		username: username,
		password: appPassword,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, username, appPassword string) *Client {
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		username: username,
		password: appPassword,
	}
}

// GetChangedFiles returns the PR's per-file diff records. The diffstat
// endpoint supplies paths, statuses and line counts; the raw diff is parsed
// for the per-side line-number maps comment anchoring needs.
func (c *Client) GetChangedFiles(ctx context.Context, pr model.PullRequest) ([]model.FileDiff, error) {
	var stats []wireDiffStat
	next := c.prURL(pr, "diffstat") + "?pagelen=100"
	for next != "" {
		var page pagedResponse[wireDiffStat]
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("listing diffstat for %s#%s: %w", pr.Site.FullName(), pr.ID, err)
		}
		stats = append(stats, page.Values...)
		next = page.Next
	}

	rawDiff, err := c.getRaw(ctx, c.prURL(pr, "diff"))
	if err != nil {
		return nil, fmt.Errorf("fetching diff for %s#%s: %w", pr.Site.FullName(), pr.ID, err)
	}
	lineMaps := parseDiffLineMaps(rawDiff)

	files := make([]model.FileDiff, 0, len(stats))
	for _, st := range stats {
		fd := mapDiffStat(st)
		if lm, ok := lineMaps[fd.Path()]; ok {
			fd.AddedLines = lm.added
			fd.DeletedLines = lm.deleted
			fd.LineContext = lm.context
		}
		files = append(files, fd)
	}
	return files, nil
}

// GetComments returns one page of the PR's comments, flat with parent
// references. A non-empty commitHash lists the comments of that commit
// instead of the PR-level ones.
func (c *Client) GetComments(ctx context.Context, pr model.PullRequest, commitHash, cursor string) (driven.CommentPage, error) {
	u := cursor
	if u == "" {
		if commitHash != "" {
			u = c.repoURL(pr.Site, "commit/"+commitHash+"/comments") + "?pagelen=100"
		} else {
			u = c.prURL(pr, "comments") + "?pagelen=100"
		}
	}

	var page pagedResponse[wireComment]
	if err := c.getJSON(ctx, u, &page); err != nil {
		return driven.CommentPage{}, fmt.Errorf("listing comments for %s#%s: %w", pr.Site.FullName(), pr.ID, err)
	}

	comments := make([]model.Comment, 0, len(page.Values))
	for _, wc := range page.Values {
		comments = append(comments, mapComment(wc, commitHash, c.username))
	}
	return driven.CommentPage{Comments: comments, Next: page.Next}, nil
}

// GetTasks returns all of the PR's tasks across pages.
func (c *Client) GetTasks(ctx context.Context, pr model.PullRequest) ([]model.Task, error) {
	var tasks []model.Task
	next := c.prURL(pr, "tasks") + "?pagelen=100"
	for next != "" {
		var page pagedResponse[wireTask]
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("listing tasks for %s#%s: %w", pr.Site.FullName(), pr.ID, err)
		}
		for _, wt := range page.Values {
			tasks = append(tasks, mapTask(wt))
		}
		next = page.Next
	}
	return tasks, nil
}

// GetFileContent fetches the raw file blob at a commit.
func (c *Client) GetFileContent(ctx context.Context, site model.SiteRef, commitHash, path string) (string, error) {
	u := c.repoURL(site, "src/"+commitHash+"/"+escapePath(path))
	text, err := c.getRaw(ctx, u)
	if err != nil {
		return "", fmt.Errorf("fetching %s at %s: %w", path, commitHash, err)
	}
	return text, nil
}

// PostComment creates a comment: a thread root when ParentID is empty, a
// reply otherwise, inline when an anchor is given.
func (c *Client) PostComment(ctx context.Context, pr model.PullRequest, nc driven.NewComment) (model.Comment, error) {
	body := commentBody{Content: contentBody{Raw: nc.Text}}
	if nc.ParentID != "" {
		id, err := parseID(nc.ParentID)
		if err != nil {
			return model.Comment{}, err
		}
		body.Parent = &idRef{ID: id}
	}
	if nc.Inline != nil {
		body.Inline = &wireInline{Path: nc.Inline.Path, From: nc.Inline.From, To: nc.Inline.To}
	}

	u := c.prURL(pr, "comments")
	if nc.CommitHash != "" {
		u = c.repoURL(pr.Site, "commit/"+nc.CommitHash+"/comments")
	}

	var created wireComment
	if err := c.send(ctx, http.MethodPost, u, body, &created); err != nil {
		return model.Comment{}, fmt.Errorf("posting comment to %s#%s: %w", pr.Site.FullName(), pr.ID, err)
	}
	return mapComment(created, nc.CommitHash, c.username), nil
}

// EditComment updates a comment's text. The response carries no child or task
// relationships.
func (c *Client) EditComment(ctx context.Context, pr model.PullRequest, commentID, text, commitHash string) (model.Comment, error) {
	u := c.prURL(pr, "comments/"+commentID)
	if commitHash != "" {
		u = c.repoURL(pr.Site, "commit/"+commitHash+"/comments/"+commentID)
	}

	var updated wireComment
	if err := c.send(ctx, http.MethodPut, u, commentBody{Content: contentBody{Raw: text}}, &updated); err != nil {
		return model.Comment{}, fmt.Errorf("editing comment %s: %w", commentID, err)
	}
	return mapComment(updated, commitHash, c.username), nil
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, pr model.PullRequest, commentID, commitHash string) error {
	u := c.prURL(pr, "comments/"+commentID)
	if commitHash != "" {
		u = c.repoURL(pr.Site, "commit/"+commitHash+"/comments/"+commentID)
	}
	if err := c.send(ctx, http.MethodDelete, u, nil, nil); err != nil {
		return fmt.Errorf("deleting comment %s: %w", commentID, err)
	}
	return nil
}

// PostTask creates a task, attached to a comment when parentCommentID is
// non-empty.
func (c *Client) PostTask(ctx context.Context, pr model.PullRequest, text, parentCommentID string) (model.Task, error) {
	body := taskBody{Content: contentBody{Raw: text}}
	if parentCommentID != "" {
		id, err := parseID(parentCommentID)
		if err != nil {
			return model.Task{}, err
		}
		body.Comment = &idRef{ID: id}
	}

	var created wireTask
	if err := c.send(ctx, http.MethodPost, c.prURL(pr, "tasks"), body, &created); err != nil {
		return model.Task{}, fmt.Errorf("posting task to %s#%s: %w", pr.Site.FullName(), pr.ID, err)
	}
	return mapTask(created), nil
}

// EditTask updates a task's content and completion state.
func (c *Client) EditTask(ctx context.Context, pr model.PullRequest, task model.Task) (model.Task, error) {
	state := "UNRESOLVED"
	if task.Done {
		state = "RESOLVED"
	}
	body := taskBody{Content: contentBody{Raw: task.Content}, State: state}

	var updated wireTask
	if err := c.send(ctx, http.MethodPut, c.prURL(pr, "tasks/"+task.ID), body, &updated); err != nil {
		return model.Task{}, fmt.Errorf("editing task %s: %w", task.ID, err)
	}
	return mapTask(updated), nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, pr model.PullRequest, task model.Task) error {
	if err := c.send(ctx, http.MethodDelete, c.prURL(pr, "tasks/"+task.ID), nil, nil); err != nil {
		return fmt.Errorf("deleting task %s: %w", task.ID, err)
	}
	return nil
}

// --- HTTP plumbing ---

func (c *Client) repoURL(site model.SiteRef, suffix string) string {
	return fmt.Sprintf("%s/repositories/%s/%s/%s", c.baseURL, site.Workspace, site.RepoSlug, suffix)
}

func (c *Client) prURL(pr model.PullRequest, suffix string) string {
	return c.repoURL(pr.Site, "pullrequests/"+pr.ID+"/"+suffix)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	raw, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) getRaw(ctx context.Context, u string) (string, error) {
	raw, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Client) send(ctx context.Context, method, u string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	raw, err := c.do(ctx, method, u, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("bitbucket request failed", "method", method, "url", u, "status", resp.StatusCode)
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, u, resp.StatusCode)
	}
	return raw, nil
}

func parseID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("malformed bitbucket id %q: %w", id, err)
	}
	return n, nil
}

// escapePath escapes each path segment individually, keeping the "/"
// separators that PathEscape would otherwise encode.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
