package bitbucket

import (
	"strconv"
	"time"

	"github.com/mfrayne/bitpane/internal/domain/model"
)

// mapComment maps a wire comment to the domain model. Bitbucket does not
// return editability flags; a comment is editable and deletable by its
// author, so the flags are derived from the authenticated username.
func mapComment(wc wireComment, commitHash, currentUser string) model.Comment {
	c := model.Comment{
		ID:          strconv.Itoa(wc.ID),
		Author:      mapUser(wc.User),
		HTMLContent: wc.Content.HTML,
		RawContent:  wc.Content.Raw,
		CreatedAt:   parseTime(wc.CreatedOn),
		UpdatedAt:   parseTime(wc.UpdatedOn),
		Deleted:     wc.Deleted,
		CommitHash:  commitHash,
	}
	if wc.Parent != nil {
		c.ParentID = strconv.Itoa(wc.Parent.ID)
	}
	if wc.Inline != nil {
		c.Inline = &model.InlineAnchor{
			Path: wc.Inline.Path,
			From: wc.Inline.From,
			To:   wc.Inline.To,
		}
	}
	mine := wc.User.Nickname == currentUser || wc.User.AccountID == currentUser
	c.Editable = mine && !wc.Deleted
	c.Deletable = mine && !wc.Deleted
	return c
}

func mapTask(wt wireTask) model.Task {
	t := model.Task{
		ID:        strconv.Itoa(wt.ID),
		Content:   wt.Content.Raw,
		Done:      wt.State == "RESOLVED",
		Editable:  true,
		Deletable: true,
		CreatedAt: parseTime(wt.CreatedOn),
		UpdatedAt: parseTime(wt.UpdatedOn),
	}
	if wt.Comment != nil {
		t.CommentID = strconv.Itoa(wt.Comment.ID)
	}
	return t
}

func mapUser(wa wireAccount) model.User {
	return model.User{
		AccountID:   wa.AccountID,
		DisplayName: wa.DisplayName,
		AvatarURL:   wa.Links.Avatar.Href,
	}
}

func mapDiffStat(st wireDiffStat) model.FileDiff {
	fd := model.FileDiff{
		Status:       mapStatus(st.Status),
		LinesAdded:   st.LinesAdded,
		LinesRemoved: st.LinesRemoved,
	}
	if st.Old != nil {
		fd.OldPath = st.Old.Path
	}
	if st.New != nil {
		fd.NewPath = st.New.Path
	}
	fd.HasConflicts = fd.Status == model.FileStatusConflict
	return fd
}

func mapStatus(s string) model.FileStatus {
	switch s {
	case "added":
		return model.FileStatusAdded
	case "removed":
		return model.FileStatusDeleted
	case "modified":
		return model.FileStatusModified
	case "renamed":
		return model.FileStatusRenamed
	case "copied":
		return model.FileStatusCopied
	case "merge conflict", "local deleted", "remote deleted":
		return model.FileStatusConflict
	default:
		return model.FileStatusUnknown
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
