package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfrayne/bitpane/internal/domain/model"
)

func comment(id, parentID string, children ...model.Comment) model.Comment {
	return model.Comment{ID: id, ParentID: parentID, RawContent: "body " + id, Children: children}
}

func TestInsertReply_AppendsUnderParent(t *testing.T) {
	forest := []model.Comment{comment("c1", "")}

	reply := comment("r1", "c1")
	updated, ok := InsertReply(forest, reply)

	require.True(t, ok)
	require.Len(t, updated, 1)
	require.Len(t, updated[0].Children, 1)
	assert.Equal(t, "r1", updated[0].Children[0].ID)

	// Input forest untouched.
	assert.Empty(t, forest[0].Children)
}

func TestInsertReply_NestedParent(t *testing.T) {
	forest := []model.Comment{
		comment("c1", "", comment("c2", "c1", comment("c3", "c2"))),
		comment("c4", ""),
	}

	updated, ok := InsertReply(forest, comment("r1", "c3"))

	require.True(t, ok)
	deep := updated[0].Children[0].Children[0]
	require.Len(t, deep.Children, 1)
	assert.Equal(t, "r1", deep.Children[0].ID)
}

func TestInsertReply_MissingParentLeavesForestUnchanged(t *testing.T) {
	forest := []model.Comment{comment("c1", "", comment("c2", "c1"))}

	updated, ok := InsertReply(forest, comment("r1", "missing"))

	assert.False(t, ok)
	assert.Equal(t, forest, updated)
}

func TestInsertReply_DoesNotTouchSiblings(t *testing.T) {
	sibling := comment("c2", "", comment("c2a", "c2"))
	forest := []model.Comment{comment("c1", ""), sibling}

	updated, ok := InsertReply(forest, comment("r1", "c1"))

	require.True(t, ok)
	assert.Equal(t, sibling, updated[1])
}

func TestInsertTask_AppendsToOwningComment(t *testing.T) {
	forest := []model.Comment{comment("c1", "", comment("c2", "c1"))}

	updated, ok := InsertTask(forest, model.Task{ID: "t1", CommentID: "c2"})

	require.True(t, ok)
	require.Len(t, updated[0].Children[0].Tasks, 1)
	assert.Equal(t, "t1", updated[0].Children[0].Tasks[0].ID)
	assert.Empty(t, updated[0].Tasks)
}

func TestReplaceComment_PreservesChildrenAndTasks(t *testing.T) {
	target := comment("c1", "", comment("c2", "c1"), comment("c3", "c1"))
	target.Tasks = []model.Task{{ID: "t1", CommentID: "c1"}}
	forest := []model.Comment{target}

	// Server edit responses carry no relationships.
	serverResponse := model.Comment{ID: "c1", RawContent: "edited"}
	updated, ok := ReplaceComment(forest, serverResponse)

	require.True(t, ok)
	assert.Equal(t, "edited", updated[0].RawContent)
	require.Len(t, updated[0].Children, 2)
	require.Len(t, updated[0].Tasks, 1)
	assert.Equal(t, "t1", updated[0].Tasks[0].ID)
}

func TestReplaceComment_MissingIDFails(t *testing.T) {
	forest := []model.Comment{comment("c1", "")}

	updated, ok := ReplaceComment(forest, model.Comment{ID: "nope"})

	assert.False(t, ok)
	assert.Equal(t, forest, updated)
}

func TestReplaceTask_IsolatedToOwningComment(t *testing.T) {
	a := comment("a", "")
	a.Tasks = []model.Task{{ID: "t1", CommentID: "a", Content: "original"}}
	b := comment("b", "")
	b.Tasks = []model.Task{{ID: "t2", CommentID: "b", Content: "other"}}
	forest := []model.Comment{a, b}

	updated, ok := ReplaceTask(forest, model.Task{ID: "t1", CommentID: "a", Content: "changed", Done: true})

	require.True(t, ok)
	assert.Equal(t, "changed", updated[0].Tasks[0].Content)
	assert.True(t, updated[0].Tasks[0].Done)
	// Comment b's tasks untouched.
	assert.Equal(t, b.Tasks, updated[1].Tasks)
}

func TestRemoveTask(t *testing.T) {
	a := comment("a", "")
	a.Tasks = []model.Task{
		{ID: "t1", CommentID: "a"},
		{ID: "t2", CommentID: "a"},
	}
	forest := []model.Comment{a}

	updated, ok := RemoveTask(forest, model.Task{ID: "t1", CommentID: "a"})

	require.True(t, ok)
	require.Len(t, updated[0].Tasks, 1)
	assert.Equal(t, "t2", updated[0].Tasks[0].ID)
}

func TestBuildForest_NestsByParent(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	flat := []model.Comment{
		{ID: "1", CreatedAt: now},
		{ID: "2", ParentID: "1", CreatedAt: now.Add(2 * time.Minute)},
		{ID: "3", ParentID: "1", CreatedAt: now.Add(1 * time.Minute)},
		{ID: "4", ParentID: "2", CreatedAt: now.Add(3 * time.Minute)},
	}

	forest := BuildForest(flat)

	require.Len(t, forest, 1)
	root := forest[0]
	require.Len(t, root.Children, 2)
	// Replies in creation order: 3 (1min) before 2 (2min).
	assert.Equal(t, "3", root.Children[0].ID)
	assert.Equal(t, "2", root.Children[1].ID)
	require.Len(t, root.Children[1].Children, 1)
	assert.Equal(t, "4", root.Children[1].Children[0].ID)
}

func TestBuildForest_OrphanPromotedToRoot(t *testing.T) {
	flat := []model.Comment{
		{ID: "1"},
		{ID: "2", ParentID: "gone"},
	}

	forest := BuildForest(flat)

	require.Len(t, forest, 2)
	assert.Equal(t, "1", forest[0].ID)
	assert.Equal(t, "2", forest[1].ID)
}

func TestBuildForest_Empty(t *testing.T) {
	assert.Nil(t, BuildForest(nil))
}
