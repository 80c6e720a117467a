package application

import (
	"sort"

	"github.com/mfrayne/bitpane/internal/domain/model"
)

// The forest operations are copy-on-write: only the comments on the path from
// a root to the mutated node are replaced, everything else is shared with the
// input. A false return means the target id was not found anywhere in the
// forest; the caller's recourse is to refetch the authoritative list from the
// server.

// InsertReply appends reply to the children of the comment whose id matches
// reply.ParentID, searching the forest pre-order. The first match wins.
func InsertReply(forest []model.Comment, reply model.Comment) ([]model.Comment, bool) {
	for i := range forest {
		if forest[i].ID == reply.ParentID {
			updated := forest[i]
			updated.Children = append(copyComments(forest[i].Children), reply)
			return replaceAt(forest, i, updated), true
		}
		if children, ok := InsertReply(forest[i].Children, reply); ok {
			updated := forest[i]
			updated.Children = children
			return replaceAt(forest, i, updated), true
		}
	}
	return forest, false
}

// InsertTask appends task to the task list of the comment whose id matches
// task.CommentID, searching the forest pre-order.
func InsertTask(forest []model.Comment, task model.Task) ([]model.Comment, bool) {
	for i := range forest {
		if forest[i].ID == task.CommentID {
			updated := forest[i]
			updated.Tasks = append(copyTasks(forest[i].Tasks), task)
			return replaceAt(forest, i, updated), true
		}
		if children, ok := InsertTask(forest[i].Children, task); ok {
			updated := forest[i]
			updated.Children = children
			return replaceAt(forest, i, updated), true
		}
	}
	return forest, false
}

// ReplaceComment swaps the comment matching updated.ID for updated, carrying
// over the existing node's Children and Tasks: the API's edit response never
// includes those relationships, so taking the payload verbatim would lose
// them.
func ReplaceComment(forest []model.Comment, updated model.Comment) ([]model.Comment, bool) {
	for i := range forest {
		if forest[i].ID == updated.ID {
			merged := updated
			merged.Children = forest[i].Children
			merged.Tasks = forest[i].Tasks
			return replaceAt(forest, i, merged), true
		}
		if children, ok := ReplaceComment(forest[i].Children, updated); ok {
			parent := forest[i]
			parent.Children = children
			return replaceAt(forest, i, parent), true
		}
	}
	return forest, false
}

// ReplaceTask swaps the task matching updated.ID within its owning comment's
// task list. Unlike ReplaceComment it touches only that one task sub-list;
// tasks under every other comment are left untouched.
func ReplaceTask(forest []model.Comment, updated model.Task) ([]model.Comment, bool) {
	for i := range forest {
		for j := range forest[i].Tasks {
			if forest[i].Tasks[j].ID == updated.ID {
				owner := forest[i]
				owner.Tasks = copyTasks(forest[i].Tasks)
				owner.Tasks[j] = updated
				return replaceAt(forest, i, owner), true
			}
		}
		if children, ok := ReplaceTask(forest[i].Children, updated); ok {
			parent := forest[i]
			parent.Children = children
			return replaceAt(forest, i, parent), true
		}
	}
	return forest, false
}

// RemoveTask deletes the task matching task.ID from its owning comment's task
// list.
func RemoveTask(forest []model.Comment, task model.Task) ([]model.Comment, bool) {
	for i := range forest {
		for j := range forest[i].Tasks {
			if forest[i].Tasks[j].ID == task.ID {
				owner := forest[i]
				owner.Tasks = append(copyTasks(forest[i].Tasks[:j]), forest[i].Tasks[j+1:]...)
				return replaceAt(forest, i, owner), true
			}
		}
		if children, ok := RemoveTask(forest[i].Children, task); ok {
			parent := forest[i]
			parent.Children = children
			return replaceAt(forest, i, parent), true
		}
	}
	return forest, false
}

// BuildForest nests a flat comment page into a forest using each comment's
// parent reference. Roots keep their listing order; replies attach to their
// parent in CreatedAt order. A reply whose parent is missing from the page is
// promoted to a root rather than dropped.
func BuildForest(flat []model.Comment) []model.Comment {
	if len(flat) == 0 {
		return nil
	}

	byID := make(map[string]model.Comment, len(flat))
	for _, c := range flat {
		c.Children = nil
		byID[c.ID] = c
	}

	childIDs := make(map[string][]string)
	var rootIDs []string
	for _, c := range flat {
		if c.ParentID == "" {
			rootIDs = append(rootIDs, c.ID)
			continue
		}
		if _, ok := byID[c.ParentID]; !ok {
			// Orphan: the parent fell outside this page or was deleted.
			rootIDs = append(rootIDs, c.ID)
			continue
		}
		childIDs[c.ParentID] = append(childIDs[c.ParentID], c.ID)
	}

	var build func(id string) model.Comment
	build = func(id string) model.Comment {
		c := byID[id]
		for _, cid := range childIDs[id] {
			c.Children = append(c.Children, build(cid))
		}
		sortByCreated(c.Children)
		return c
	}

	forest := make([]model.Comment, 0, len(rootIDs))
	for _, id := range rootIDs {
		forest = append(forest, build(id))
	}
	return forest
}

func sortByCreated(comments []model.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

func replaceAt(forest []model.Comment, i int, c model.Comment) []model.Comment {
	out := copyComments(forest)
	out[i] = c
	return out
}

func copyComments(comments []model.Comment) []model.Comment {
	return append([]model.Comment(nil), comments...)
}

func copyTasks(tasks []model.Task) []model.Task {
	return append([]model.Task(nil), tasks...)
}
