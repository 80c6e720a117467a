package model

import "time"

// Task is an actionable item attached to a pull request comment. It is
// created under a comment but mutated and deleted independently of it.
type Task struct {
	ID        string
	CommentID string // Owning comment; empty for PR-level tasks.
	Content   string
	Done      bool
	Editable  bool
	Deletable bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
