package driven

import (
	"context"

	"github.com/mfrayne/bitpane/internal/domain/model"
)

// NewComment carries the fields needed to create a comment through the remote
// API. Inline is nil for PR-level comments; ParentID is empty for thread roots.
type NewComment struct {
	Text       string
	ParentID   string
	Inline     *model.InlineAnchor
	CommitHash string
	LineType   model.LineType
}

// CommentPage is one page of the remote comment listing. Next is the cursor
// for the following page, empty on the last page.
type CommentPage struct {
	Comments []model.Comment
	Next     string
}

// RemotePRClient defines the driven port for the Bitbucket pull request API.
// Comments are returned flat; tree structure is reconstructed locally from
// parent references.
type RemotePRClient interface {
	// Read methods

	// GetChangedFiles returns the per-file diff records between the PR's
	// destination and source, including per-side line-number maps.
	GetChangedFiles(ctx context.Context, pr model.PullRequest) ([]model.FileDiff, error)
	// GetComments returns one page of the PR's comments. commitHash narrows
	// the listing to commit-level comments when non-empty.
	GetComments(ctx context.Context, pr model.PullRequest, commitHash, cursor string) (CommentPage, error)
	GetTasks(ctx context.Context, pr model.PullRequest) ([]model.Task, error)
	// GetFileContent fetches a file blob at a specific commit.
	GetFileContent(ctx context.Context, site model.SiteRef, commitHash, path string) (string, error)

	// Write methods

	PostComment(ctx context.Context, pr model.PullRequest, c NewComment) (model.Comment, error)
	// EditComment updates a comment's text. The returned comment never
	// carries children or tasks; callers must preserve those themselves.
	EditComment(ctx context.Context, pr model.PullRequest, commentID, text, commitHash string) (model.Comment, error)
	DeleteComment(ctx context.Context, pr model.PullRequest, commentID, commitHash string) error
	PostTask(ctx context.Context, pr model.PullRequest, text, parentCommentID string) (model.Task, error)
	EditTask(ctx context.Context, pr model.PullRequest, task model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, pr model.PullRequest, task model.Task) error
}
