package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfrayne/bitpane/internal/domain/model"
	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

func testPR() model.PullRequest {
	return model.PullRequest{
		Site: model.SiteRef{Host: "bitbucket.org", Workspace: "acme", RepoSlug: "widgets"},
		ID:   "42",
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTPClient(srv.Client(), srv.URL, "reviewer", "app-pass")
}

func TestGetComments_MapsPageAndCursor(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, _, _ := r.BasicAuth()
		gotAuth = user
		fmt.Fprint(w, `{
			"values": [
				{
					"id": 101,
					"content": {"raw": "looks wrong", "html": "<p>looks wrong</p>"},
					"user": {"nickname": "reviewer", "display_name": "A Reviewer"},
					"created_on": "2026-08-01T10:00:00.000000+00:00",
					"inline": {"path": "main.go", "to": 7}
				},
				{
					"id": 102,
					"content": {"raw": "agreed"},
					"user": {"nickname": "someone-else"},
					"parent": {"id": 101}
				}
			],
			"next": "https://example.test/page2"
		}`)
	}))

	page, err := client.GetComments(context.Background(), testPR(), "", "")

	require.NoError(t, err)
	assert.Equal(t, "/repositories/acme/widgets/pullrequests/42/comments", gotPath)
	assert.Equal(t, "reviewer", gotAuth)
	assert.Equal(t, "https://example.test/page2", page.Next)

	require.Len(t, page.Comments, 2)
	root := page.Comments[0]
	assert.Equal(t, "101", root.ID)
	assert.Empty(t, root.ParentID)
	assert.Equal(t, "looks wrong", root.RawContent)
	assert.Equal(t, "<p>looks wrong</p>", root.HTMLContent)
	require.NotNil(t, root.Inline)
	assert.Equal(t, "main.go", root.Inline.Path)
	require.NotNil(t, root.Inline.To)
	assert.Equal(t, 7, *root.Inline.To)
	// Authored by the authenticated user, so editable.
	assert.True(t, root.Editable)
	assert.True(t, root.Deletable)

	reply := page.Comments[1]
	assert.Equal(t, "101", reply.ParentID)
	assert.False(t, reply.Editable)
}

func TestGetComments_CursorOverridesURL(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"values": []}`)
	}))

	cursor := client.baseURL + "/page2"
	_, err := client.GetComments(context.Background(), testPR(), "", cursor)

	require.NoError(t, err)
	assert.Equal(t, "/page2", gotPath)
}

func TestGetComments_CommitLevelEndpoint(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"values": [{"id": 5, "content": {"raw": "x"}}]}`)
	}))

	page, err := client.GetComments(context.Background(), testPR(), "abc123", "")

	require.NoError(t, err)
	assert.Equal(t, "/repositories/acme/widgets/commit/abc123/comments", gotPath)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "abc123", page.Comments[0].CommitHash)
}

func TestGetChangedFiles_MergesDiffstatWithLineMaps(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repositories/acme/widgets/pullrequests/42/diffstat":
			fmt.Fprint(w, `{"values": [
				{"status": "modified", "lines_added": 1, "lines_removed": 1,
				 "old": {"path": "main.go"}, "new": {"path": "main.go"}},
				{"status": "merge conflict", "lines_added": 0, "lines_removed": 0,
				 "old": {"path": "state.go"}, "new": {"path": "state.go"}}
			]}`)
		case "/repositories/acme/widgets/pullrequests/42/diff":
			fmt.Fprint(w, "diff --git a/main.go b/main.go\n"+
				"--- a/main.go\n"+
				"+++ b/main.go\n"+
				"@@ -3,2 +3,2 @@\n"+
				"-old line\n"+
				"+new line\n"+
				" unchanged\n")
		default:
			http.NotFound(w, r)
		}
	}))

	files, err := client.GetChangedFiles(context.Background(), testPR())

	require.NoError(t, err)
	require.Len(t, files, 2)

	main := files[0]
	assert.Equal(t, model.FileStatusModified, main.Status)
	assert.Equal(t, 1, main.LinesAdded)
	assert.Equal(t, []int{3}, main.AddedLines)
	assert.Equal(t, []int{3}, main.DeletedLines)
	assert.Equal(t, 4, main.LineContext[4])

	conflicted := files[1]
	assert.Equal(t, model.FileStatusConflict, conflicted.Status)
	assert.True(t, conflicted.HasConflicts)
	assert.Empty(t, conflicted.AddedLines)
}

func TestGetTasks_PagesAndMapsState(t *testing.T) {
	calls := 0
	var srvURL string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprintf(w, `{
				"values": [{"id": 7, "state": "RESOLVED", "content": {"raw": "done thing"}, "comment": {"id": 101}}],
				"next": %q
			}`, srvURL+"/tasks-page2")
			return
		}
		fmt.Fprint(w, `{"values": [{"id": 8, "state": "UNRESOLVED", "content": {"raw": "open thing"}}]}`)
	}))
	srvURL = client.baseURL

	tasks, err := client.GetTasks(context.Background(), testPR())

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, tasks, 2)
	assert.Equal(t, "7", tasks[0].ID)
	assert.True(t, tasks[0].Done)
	assert.Equal(t, "101", tasks[0].CommentID)
	assert.False(t, tasks[1].Done)
	assert.Empty(t, tasks[1].CommentID)
}

func TestGetFileContent_EscapesPathSegments(t *testing.T) {
	var gotURI string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.RequestURI
		fmt.Fprint(w, "package main\n")
	}))

	text, err := client.GetFileContent(context.Background(), testPR().Site, "abc123", "dir with space/main.go")

	require.NoError(t, err)
	assert.Equal(t, "package main\n", text)
	assert.Equal(t, "/repositories/acme/widgets/src/abc123/dir%20with%20space/main.go", gotURI)
}

func TestPostComment_InlineReplyBody(t *testing.T) {
	var body commentBody
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"id": 200, "content": {"raw": "new comment"}, "user": {"nickname": "reviewer"}}`)
	}))

	to := 7
	created, err := client.PostComment(context.Background(), testPR(), driven.NewComment{
		Text:     "new comment",
		ParentID: "101",
		Inline:   &model.InlineAnchor{Path: "main.go", To: &to},
	})

	require.NoError(t, err)
	assert.Equal(t, "200", created.ID)
	assert.True(t, created.Editable)

	assert.Equal(t, "new comment", body.Content.Raw)
	require.NotNil(t, body.Parent)
	assert.Equal(t, 101, body.Parent.ID)
	require.NotNil(t, body.Inline)
	assert.Equal(t, "main.go", body.Inline.Path)
	require.NotNil(t, body.Inline.To)
	assert.Equal(t, 7, *body.Inline.To)
}

func TestPostComment_MalformedParentID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.PostComment(context.Background(), testPR(), driven.NewComment{Text: "x", ParentID: "not-a-number"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed bitbucket id")
}

func TestEditTask_SendsResolvedState(t *testing.T) {
	var body taskBody
	var gotPath, gotMethod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"id": 7, "state": "RESOLVED", "content": {"raw": "done thing"}}`)
	}))

	updated, err := client.EditTask(context.Background(), testPR(), model.Task{ID: "7", Content: "done thing", Done: true})

	require.NoError(t, err)
	assert.Equal(t, "/repositories/acme/widgets/pullrequests/42/tasks/7", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "RESOLVED", body.State)
	assert.True(t, updated.Done)
}

func TestDeleteComment_CommitLevelURL(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.DeleteComment(context.Background(), testPR(), "101", "abc123")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/repositories/acme/widgets/commit/abc123/comments/101", gotPath)
}

func TestErrorStatusSurfacesInError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	_, err := client.GetTasks(context.Background(), testPR())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
}
