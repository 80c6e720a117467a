package model

import "time"

// InlineAnchor locates a comment within a file diff. Exactly one of From and
// To is set: From anchors the comment to the left (pre-image) side, To to the
// right (post-image) side.
type InlineAnchor struct {
	Path string
	From *int
	To   *int
}

// Side reports which diff side the anchor targets.
func (a InlineAnchor) Side() DiffSide {
	if a.From != nil {
		return SideLeft
	}
	return SideRight
}

// Line returns the anchored line number on whichever side is set.
func (a InlineAnchor) Line() int {
	if a.From != nil {
		return *a.From
	}
	if a.To != nil {
		return *a.To
	}
	return 0
}

// Comment is a pull request comment. Children holds direct replies in reply
// order; Tasks holds tasks attached to this comment. The remote API returns
// comments flat with parent references; the nested form is built locally.
type Comment struct {
	ID          string
	ParentID    string // Empty for thread roots.
	Author      User
	HTMLContent string
	RawContent  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Deleted     bool
	Editable    bool
	Deletable   bool

	// Inline is nil for pull-request-level (non-inline) comments. An inline
	// comment always has a path.
	Inline *InlineAnchor

	// CommitHash scopes the comment to a single commit for commit-level
	// review; empty for PR-level comments.
	CommitHash string

	Children []Comment
	Tasks    []Task
}

// IsInline reports whether the comment is anchored to a diff location.
func (c Comment) IsInline() bool {
	return c.Inline != nil
}

// CountWithReplies returns the number of comments in this comment's subtree,
// including itself.
func (c Comment) CountWithReplies() int {
	n := 1
	for _, child := range c.Children {
		n += child.CountWithReplies()
	}
	return n
}
