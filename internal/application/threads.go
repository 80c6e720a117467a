package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mfrayne/bitpane/internal/domain/model"
	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

// ErrRefetchRequired reports that a mutation's target was missing from the
// cached thread. The cache has drifted from the server; the caller should
// refetch the authoritative comment list and rebuild.
var ErrRefetchRequired = errors.New("entity not found in cached thread, refetch required")

// LineRange is the line span a thread is attached to.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ThreadAnchor resolves where a brand-new comment attaches in the diff.
type ThreadAnchor struct {
	Path       string
	Line       int
	Side       model.DiffSide
	LineType   model.LineType
	CommitHash string // Set for commit-level review comments.
}

// AnchorFromIdentity builds a ThreadAnchor for a line of the given side,
// classifying the line as added, removed, or context using the identity's
// line maps.
func AnchorFromIdentity(id FileIdentity, side model.DiffSide, line int) ThreadAnchor {
	lineType := model.LineTypeContext
	switch side {
	case model.SideLeft:
		for _, n := range id.DeletedLines {
			if n == line {
				lineType = model.LineTypeRemoved
				break
			}
		}
	case model.SideRight:
		for _, n := range id.AddedLines {
			if n == line {
				lineType = model.LineTypeAdded
				break
			}
		}
	}
	commit := ""
	if id.CommitLevel {
		commit = id.CommitHash
	}
	return ThreadAnchor{Path: id.Path, Line: line, Side: side, LineType: lineType, CommitHash: commit}
}

// Thread is the live, UI-facing grouping of the comments and tasks anchored
// to one inline location. Comments is the nested source of truth; Entries is
// the flattened display list derived from it on every rebuild.
type Thread struct {
	ID        string
	URI       string
	Range     LineRange
	Collapsed bool
	Comments  []model.Comment
	Entries   []driven.ThreadViewEntry
}

// temporarySlot tracks the single not-yet-created reply or task placeholder.
// At most one exists across the whole controller: starting a second creation
// anywhere clears the previous one first.
type temporarySlot struct {
	threadID string
	parentID string
	entity   model.CommentEntity
	draft    string
}

// editBuffer holds the pre-edit content of an entity for rollback on cancel.
type editBuffer struct {
	entityID string
	prior    string
	draft    string
}

// PRDetails is the joined result of the initial detail batch for a pull
// request.
type PRDetails struct {
	Files    []model.FileDiff
	Comments []model.Comment // Nested forest with tasks attached.
	Tasks    []model.Task    // Flat, including PR-level tasks with no comment.
}

// ThreadController owns the in-memory thread cache for one pull request and
// mediates every comment and task mutation against the remote API.
//
// The controller is written for the editor host's single event loop: it takes
// no locks. Concurrent mutations against the same thread serialize through
// rebuild — the last rebuild wins, and an earlier in-flight call that
// resolves late simply rebuilds again. Controllers are per pull request, so
// two open PRs never contend.
type ThreadController struct {
	pr        model.PullRequest
	client    driven.RemotePRClient
	publisher driven.ThreadPublisher

	threads map[string]*Thread
	temp    *temporarySlot
	edits   map[string]*editBuffer // Keyed by entity id.
}

// NewThreadController creates the controller for one pull request.
func NewThreadController(pr model.PullRequest, client driven.RemotePRClient, publisher driven.ThreadPublisher) *ThreadController {
	return &ThreadController{
		pr:        pr,
		client:    client,
		publisher: publisher,
		threads:   make(map[string]*Thread),
		edits:     make(map[string]*editBuffer),
	}
}

// LoadPRDetails fetches the PR's changed files, comments (all pages), and
// tasks as one concurrent batch and joins them. Any member failing fails the
// batch as a whole; there is no partial result.
func (c *ThreadController) LoadPRDetails(ctx context.Context) (*PRDetails, error) {
	var (
		wg       sync.WaitGroup
		files    []model.FileDiff
		comments []model.Comment
		tasks    []model.Task

		errFiles, errComments, errTasks error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		files, errFiles = c.client.GetChangedFiles(ctx, c.pr)
	}()
	go func() {
		defer wg.Done()
		comments, errComments = c.fetchAllComments(ctx, "")
	}()
	go func() {
		defer wg.Done()
		tasks, errTasks = c.client.GetTasks(ctx, c.pr)
	}()
	wg.Wait()

	for _, err := range []error{errFiles, errComments, errTasks} {
		if err != nil {
			return nil, fmt.Errorf("failed to load pull request details: %w", err)
		}
	}

	forest := BuildForest(comments)
	forest = attachTasks(forest, tasks)

	return &PRDetails{Files: files, Comments: forest, Tasks: tasks}, nil
}

func (c *ThreadController) fetchAllComments(ctx context.Context, commitHash string) ([]model.Comment, error) {
	var all []model.Comment
	cursor := ""
	for {
		page, err := c.client.GetComments(ctx, c.pr, commitHash, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Comments...)
		if page.Next == "" {
			return all, nil
		}
		cursor = page.Next
	}
}

// attachTasks weaves tasks into their owning comments. Tasks whose comment is
// not in the forest (PR-level tasks) are left unattached.
func attachTasks(forest []model.Comment, tasks []model.Task) []model.Comment {
	for _, t := range tasks {
		if t.CommentID == "" {
			continue
		}
		if updated, ok := InsertTask(forest, t); ok {
			forest = updated
		}
	}
	return forest
}

// EnsureThread creates or wholesale-replaces the cached thread for the given
// id. An empty id mints a fresh thread id for a location with no comments
// yet.
func (c *ThreadController) EnsureThread(threadID, uri string, rng LineRange, comments []model.Comment) *Thread {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	return c.rebuildThread(threadID, uri, rng, comments)
}

// Thread returns the cached thread for id, or nil.
func (c *ThreadController) Thread(threadID string) *Thread {
	return c.threads[threadID]
}

// AddComment posts a new comment at the anchored location and appends it to
// the thread. A thread with no prior comments takes the new comment's id as
// its thread id, replacing the provisional one.
func (c *ThreadController) AddComment(ctx context.Context, threadID, uri string, rng LineRange, anchor ThreadAnchor, text string) (*Thread, error) {
	inline := &model.InlineAnchor{Path: anchor.Path}
	line := anchor.Line
	if anchor.Side == model.SideLeft {
		inline.From = &line
	} else {
		inline.To = &line
	}

	created, err := c.client.PostComment(ctx, c.pr, driven.NewComment{
		Text:       text,
		Inline:     inline,
		CommitHash: anchor.CommitHash,
		LineType:   anchor.LineType,
	})
	if err != nil {
		return nil, fmt.Errorf("posting comment on %s:%d: %w", anchor.Path, anchor.Line, err)
	}

	var comments []model.Comment
	if existing := c.threads[threadID]; existing != nil && len(existing.Comments) > 0 {
		comments = append(copyComments(existing.Comments), created)
	} else {
		// Empty thread: the confirmed comment's id becomes the thread id.
		if existing != nil {
			c.disposeThread(threadID)
		}
		threadID = created.ID
		comments = []model.Comment{created}
	}

	return c.rebuildThread(threadID, uri, rng, comments), nil
}

// StartEdit switches an entity into editing state, keeping its prior content
// for rollback. Nothing is sent to the server until SaveEdit.
func (c *ThreadController) StartEdit(threadID, entityID string) error {
	t := c.threads[threadID]
	if t == nil {
		return ErrRefetchRequired
	}
	for _, e := range t.Entries {
		if e.Entity.ID() != entityID {
			continue
		}
		prior := entityContent(e.Entity)
		c.edits[entityID] = &editBuffer{entityID: entityID, prior: prior, draft: prior}
		c.publishThread(t)
		return nil
	}
	return ErrRefetchRequired
}

// CancelEdit discards the edit buffer and returns the entity to preview with
// its prior content.
func (c *ThreadController) CancelEdit(threadID string, entityID string) {
	delete(c.edits, entityID)
	if t := c.threads[threadID]; t != nil {
		c.publishThread(t)
	}
}

// SaveEdit sends the edited text to the server and merges the confirmed
// entity back into the thread. Comment merges preserve the node's existing
// replies and tasks, which the API response never carries. On failure the
// edit buffer stays intact so no user input is lost.
func (c *ThreadController) SaveEdit(ctx context.Context, threadID, entityID, text string) (*Thread, error) {
	t := c.threads[threadID]
	if t == nil {
		return nil, ErrRefetchRequired
	}

	entry := findEntry(t, entityID)
	if entry == nil {
		return nil, ErrRefetchRequired
	}

	var (
		comments []model.Comment
		ok       bool
	)
	switch entry.Entity.Kind {
	case model.EntityComment:
		updated, err := c.client.EditComment(ctx, c.pr, entityID, text, entry.Entity.Comment.CommitHash)
		if err != nil {
			return nil, fmt.Errorf("editing comment %s: %w", entityID, err)
		}
		comments, ok = ReplaceComment(t.Comments, updated)
	case model.EntityTask:
		task := *entry.Entity.Task
		task.Content = text
		updated, err := c.client.EditTask(ctx, c.pr, task)
		if err != nil {
			return nil, fmt.Errorf("editing task %s: %w", entityID, err)
		}
		comments, ok = ReplaceTask(t.Comments, updated)
	}
	if !ok {
		return nil, ErrRefetchRequired
	}

	delete(c.edits, entityID)
	return c.rebuildThread(t.ID, t.URI, t.Range, comments), nil
}

// DeleteComment deletes the comment remotely and filters it out of the
// thread. The delete is shallow by design: replies of a deleted interior
// comment are not cascade-deleted or re-parented, they remain in the thread
// as orphaned top-level entries.
func (c *ThreadController) DeleteComment(ctx context.Context, threadID, commentID string) (*Thread, error) {
	t := c.threads[threadID]
	if t == nil {
		return nil, ErrRefetchRequired
	}

	entry := findEntry(t, commentID)
	if entry == nil || entry.Entity.Kind != model.EntityComment {
		return nil, ErrRefetchRequired
	}

	if err := c.client.DeleteComment(ctx, c.pr, commentID, entry.Entity.Comment.CommitHash); err != nil {
		return nil, fmt.Errorf("deleting comment %s: %w", commentID, err)
	}

	comments := removeCommentShallow(t.Comments, commentID)
	return c.rebuildThread(t.ID, t.URI, t.Range, comments), nil
}

// DeleteTask deletes a task remotely and removes it from its owning comment.
func (c *ThreadController) DeleteTask(ctx context.Context, threadID string, task model.Task) (*Thread, error) {
	t := c.threads[threadID]
	if t == nil {
		return nil, ErrRefetchRequired
	}
	if err := c.client.DeleteTask(ctx, c.pr, task); err != nil {
		return nil, fmt.Errorf("deleting task %s: %w", task.ID, err)
	}
	comments, ok := RemoveTask(t.Comments, task)
	if !ok {
		return nil, ErrRefetchRequired
	}
	return c.rebuildThread(t.ID, t.URI, t.Range, comments), nil
}

// AddReplyPlaceholder creates the temporary reply entry under the given
// comment, clearing any existing temporary entity first — at most one unsaved
// placeholder exists across the controller. The placeholder starts directly
// in editing state.
func (c *ThreadController) AddReplyPlaceholder(threadID, parentCommentID, draft string) (*Thread, error) {
	t := c.threads[threadID]
	if t == nil {
		return nil, ErrRefetchRequired
	}
	c.clearTemporary()

	reply := model.Comment{
		ID:         temporaryID(),
		ParentID:   parentCommentID,
		RawContent: draft,
	}
	c.temp = &temporarySlot{
		threadID: threadID,
		parentID: parentCommentID,
		entity:   model.NewCommentEntity(reply),
		draft:    draft,
	}
	return c.rebuildThread(t.ID, t.URI, t.Range, t.Comments), nil
}

// AddTaskPlaceholder creates the temporary task entry under the given
// comment, subject to the same single-slot rule as replies.
func (c *ThreadController) AddTaskPlaceholder(threadID, parentCommentID, draft string) (*Thread, error) {
	t := c.threads[threadID]
	if t == nil {
		return nil, ErrRefetchRequired
	}
	c.clearTemporary()

	task := model.Task{
		ID:        temporaryID(),
		CommentID: parentCommentID,
		Content:   draft,
	}
	c.temp = &temporarySlot{
		threadID: threadID,
		parentID: parentCommentID,
		entity:   model.NewTaskEntity(task),
		draft:    draft,
	}
	return c.rebuildThread(t.ID, t.URI, t.Range, t.Comments), nil
}

// SaveTemporary confirms the pending placeholder against the server and
// splices the confirmed entity into the thread immediately following its
// parent. On failure the placeholder stays in place.
func (c *ThreadController) SaveTemporary(ctx context.Context, text string) (*Thread, error) {
	slot := c.temp
	if slot == nil {
		return nil, errors.New("no temporary entity pending")
	}
	t := c.threads[slot.threadID]
	if t == nil {
		return nil, ErrRefetchRequired
	}

	var (
		comments []model.Comment
		ok       bool
	)
	switch slot.entity.Kind {
	case model.EntityComment:
		created, err := c.client.PostComment(ctx, c.pr, driven.NewComment{
			Text:     text,
			ParentID: slot.parentID,
		})
		if err != nil {
			return nil, fmt.Errorf("posting reply to %s: %w", slot.parentID, err)
		}
		comments, ok = InsertReply(t.Comments, created)
	case model.EntityTask:
		created, err := c.client.PostTask(ctx, c.pr, text, slot.parentID)
		if err != nil {
			return nil, fmt.Errorf("posting task under %s: %w", slot.parentID, err)
		}
		comments, ok = InsertTask(t.Comments, created)
	}
	if !ok {
		return nil, ErrRefetchRequired
	}

	c.temp = nil
	return c.rebuildThread(t.ID, t.URI, t.Range, comments), nil
}

// CancelTemporary discards the pending placeholder, if any.
func (c *ThreadController) CancelTemporary() {
	c.clearTemporary()
}

// ToggleTaskComplete flips a task's completion flag against the server and
// merges the result, touching only the owning comment's task list.
func (c *ThreadController) ToggleTaskComplete(ctx context.Context, threadID string, task model.Task) (*Thread, error) {
	t := c.threads[threadID]
	if t == nil {
		return nil, ErrRefetchRequired
	}

	toggled := task
	toggled.Done = !task.Done
	updated, err := c.client.EditTask(ctx, c.pr, toggled)
	if err != nil {
		return nil, fmt.Errorf("toggling task %s: %w", task.ID, err)
	}

	comments, ok := ReplaceTask(t.Comments, updated)
	if !ok {
		return nil, ErrRefetchRequired
	}
	return c.rebuildThread(t.ID, t.URI, t.Range, comments), nil
}

// ToggleCommentsVisibility flips the collapsed flag on every cached thread
// bound to the given file-version URI. Purely local; no remote call.
func (c *ThreadController) ToggleCommentsVisibility(uri string) {
	for _, t := range c.threads {
		if t.URI != uri {
			continue
		}
		t.Collapsed = !t.Collapsed
		c.publishThread(t)
	}
}

// Close disposes every published thread and empties the cache. Called when
// the owning pull request view closes.
func (c *ThreadController) Close() {
	for id := range c.threads {
		c.publisher.Dispose(id)
	}
	c.threads = make(map[string]*Thread)
	c.temp = nil
	c.edits = make(map[string]*editBuffer)
}

// rebuildThread is the single choke point every mutation routes through. It
// disposes any previous thread object for the id, derives the display entries
// from a clean comment-only base (tasks re-interleaved immediately after
// their owning comment, at most one temporary re-injected), caches the result
// and publishes it. Rebuilding from scratch every time trades O(n) work per
// edit for immunity to incremental-patch bugs; comment counts are bounded by
// the API's page size.
func (c *ThreadController) rebuildThread(threadID, uri string, rng LineRange, comments []model.Comment) *Thread {
	collapsed := false
	if prev := c.threads[threadID]; prev != nil {
		collapsed = prev.Collapsed
	}
	c.disposeThread(threadID)

	t := &Thread{
		ID:        threadID,
		URI:       uri,
		Range:     rng,
		Collapsed: collapsed,
		Comments:  comments,
	}
	t.Entries = c.buildEntries(threadID, comments)
	c.threads[threadID] = t
	c.publishThread(t)
	return t
}

// buildEntries flattens the comment forest pre-order, interleaving each
// comment's tasks directly after it and injecting the temporary placeholder
// after its parent comment.
func (c *ThreadController) buildEntries(threadID string, comments []model.Comment) []driven.ThreadViewEntry {
	var entries []driven.ThreadViewEntry
	var walk func(list []model.Comment)
	walk = func(list []model.Comment) {
		for _, cm := range list {
			entries = append(entries, c.viewEntry(model.NewCommentEntity(cm)))
			for _, task := range cm.Tasks {
				entries = append(entries, c.viewEntry(model.NewTaskEntity(task)))
			}
			if c.temp != nil && c.temp.threadID == threadID && c.temp.parentID == cm.ID {
				entries = append(entries, driven.ThreadViewEntry{
					Entity:    c.temp.entity,
					Editing:   true,
					Temporary: true,
					Draft:     c.temp.draft,
				})
			}
			walk(cm.Children)
		}
	}
	walk(comments)
	return entries
}

func (c *ThreadController) viewEntry(e model.CommentEntity) driven.ThreadViewEntry {
	entry := driven.ThreadViewEntry{Entity: e}
	if buf, ok := c.edits[e.ID()]; ok {
		entry.Editing = true
		entry.Draft = buf.draft
	}
	return entry
}

func (c *ThreadController) publishThread(t *Thread) {
	c.publisher.Publish(driven.ThreadView{
		ID:        t.ID,
		URI:       t.URI,
		StartLine: t.Range.Start,
		EndLine:   t.Range.End,
		Collapsed: t.Collapsed,
		Entries:   t.Entries,
	})
}

func (c *ThreadController) disposeThread(threadID string) {
	if _, ok := c.threads[threadID]; ok {
		c.publisher.Dispose(threadID)
		delete(c.threads, threadID)
	}
}

// clearTemporary drops the pending placeholder and rebuilds the thread that
// held it so the placeholder disappears from display.
func (c *ThreadController) clearTemporary() {
	slot := c.temp
	if slot == nil {
		return
	}
	c.temp = nil
	if t := c.threads[slot.threadID]; t != nil {
		c.rebuildThread(t.ID, t.URI, t.Range, t.Comments)
	}
}

// removeCommentShallow deletes the comment with the given id from its direct
// parent's list. The removed node's own children are appended to the thread's
// root list, still carrying their stale parent reference: orphaned, not
// re-parented.
func removeCommentShallow(forest []model.Comment, id string) []model.Comment {
	var orphans []model.Comment
	var remove func(list []model.Comment) ([]model.Comment, bool)
	remove = func(list []model.Comment) ([]model.Comment, bool) {
		for i := range list {
			if list[i].ID == id {
				orphans = list[i].Children
				out := append(copyComments(list[:i]), list[i+1:]...)
				return out, true
			}
			if children, ok := remove(list[i].Children); ok {
				updated := list[i]
				updated.Children = children
				return replaceAt(list, i, updated), true
			}
		}
		return list, false
	}

	out, ok := remove(forest)
	if !ok {
		return forest
	}
	return append(out, orphans...)
}

func findEntry(t *Thread, entityID string) *driven.ThreadViewEntry {
	for i := range t.Entries {
		if t.Entries[i].Entity.ID() == entityID {
			return &t.Entries[i]
		}
	}
	return nil
}

func entityContent(e model.CommentEntity) string {
	switch e.Kind {
	case model.EntityComment:
		return e.Comment.RawContent
	case model.EntityTask:
		return e.Task.Content
	}
	return ""
}

func temporaryID() string {
	return "temp-" + uuid.NewString()
}
