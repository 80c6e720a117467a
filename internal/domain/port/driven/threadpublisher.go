package driven

import "github.com/mfrayne/bitpane/internal/domain/model"

// ThreadViewEntry is one display row of a thread: a comment or task entity
// plus its presentation state.
type ThreadViewEntry struct {
	Entity    model.CommentEntity
	Editing   bool   // Entity has an open edit buffer.
	Temporary bool   // Entity is local-only, not yet confirmed by the server.
	Draft     string // Edit buffer contents while Editing.
}

// ThreadView is the ordered, display-ready form of a comment thread handed to
// the editor host: comments interleaved with their tasks, plus at most one
// temporary (unsaved) entry.
type ThreadView struct {
	ID        string
	URI       string
	StartLine int
	EndLine   int
	Collapsed bool
	Entries   []ThreadViewEntry
}

// ThreadPublisher defines the driven port for the editor host's comment
// surface. The controller replaces threads wholesale: every mutation disposes
// the previous thread object and publishes a fresh one.
type ThreadPublisher interface {
	Publish(view ThreadView)
	// Dispose retracts a previously published thread.
	Dispose(threadID string)
}
