package panel

import (
	"github.com/mfrayne/bitpane/internal/domain/model"
	"github.com/mfrayne/bitpane/internal/domain/port/driven"
)

// EntryHTML returns the display HTML for one thread entry: the
// server-rendered HTML when the entity is confirmed, otherwise raw text (or
// the live edit buffer) rendered and sanitized locally.
func EntryHTML(entry driven.ThreadViewEntry) string {
	if entry.Editing || entry.Temporary {
		src := entry.Draft
		if src == "" {
			src = rawContent(entry.Entity)
		}
		return RenderMarkdown(src)
	}

	if entry.Entity.Kind == model.EntityComment && entry.Entity.Comment.HTMLContent != "" {
		return entry.Entity.Comment.HTMLContent
	}
	return RenderMarkdown(rawContent(entry.Entity))
}

func rawContent(e model.CommentEntity) string {
	switch e.Kind {
	case model.EntityComment:
		return e.Comment.RawContent
	case model.EntityTask:
		return e.Task.Content
	}
	return ""
}
