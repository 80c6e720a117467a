package model

// EntityKind discriminates the CommentEntity union.
type EntityKind string

const (
	EntityComment EntityKind = "comment"
	EntityTask    EntityKind = "task"
)

// CommentEntity is a tagged union over the two kinds of thread member.
// Exactly one of Comment and Task is non-nil, matching Kind.
type CommentEntity struct {
	Kind    EntityKind
	Comment *Comment
	Task    *Task
}

// NewCommentEntity wraps a comment.
func NewCommentEntity(c Comment) CommentEntity {
	return CommentEntity{Kind: EntityComment, Comment: &c}
}

// NewTaskEntity wraps a task.
func NewTaskEntity(t Task) CommentEntity {
	return CommentEntity{Kind: EntityTask, Task: &t}
}

// ID returns the wrapped entity's id.
func (e CommentEntity) ID() string {
	switch e.Kind {
	case EntityComment:
		return e.Comment.ID
	case EntityTask:
		return e.Task.ID
	}
	return ""
}

// ParentCommentID returns the id of the comment this entity hangs under:
// the reply's parent for comments, the owning comment for tasks. Empty for
// thread roots.
func (e CommentEntity) ParentCommentID() string {
	switch e.Kind {
	case EntityComment:
		return e.Comment.ParentID
	case EntityTask:
		return e.Task.CommentID
	}
	return ""
}
