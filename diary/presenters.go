package diary

import (
	"github.com/gin-gonic/gin"

	"pine/models"
	"pine/store"
)

func collectionRef(c models.Collection) gin.H {
	return gin.H{
		"id":    c.ID,
		"name":  c.Name,
		"slug":  store.SlugValue(c.Slug),
		"color": c.Color,
	}
}

func collectionRefs(collections []models.Collection) []gin.H {
	out := make([]gin.H, 0, len(collections))
	for _, c := range collections {
		out = append(out, collectionRef(c))
	}
	return out
}

func collectionJSON(c models.Collection) gin.H {
	return gin.H{
		"id":         c.ID,
		"name":       c.Name,
		"slug":       store.SlugValue(c.Slug),
		"color":      c.Color,
		"created_at": c.CreatedAt,
		"last_used":  c.LastUsed,
	}
}

func collectionSummaryJSON(s store.CollectionSummary) gin.H {
	out := collectionJSON(s.Collection)
	out["entries_count"] = s.EntriesCount
	out["chapters_count"] = s.ChaptersCount
	return out
}

func moodJSON(m models.Mood) gin.H {
	return gin.H{
		"id":         m.ID,
		"color":      m.Color,
		"emoji":      m.Emoji,
		"name":       m.Name,
		"created_at": m.CreatedAt,
	}
}

func entryJSON(e *models.Entry) gin.H {
	out := gin.H{
		"id":           e.ID,
		"title":        e.Title,
		"content":      e.Content,
		"slug":         store.SlugValue(e.Slug),
		"is_archived":  e.IsArchived,
		"is_favourite": e.IsFavourite,
		"created_at":   e.CreatedAt,
		"updated_at":   e.UpdatedAt,
		"collection":   collectionRefs(e.Collections),
		"mood":         nil,
		"chapter":      nil,
	}
	if e.Mood != nil {
		out["mood"] = gin.H{
			"id":    e.Mood.ID,
			"color": e.Mood.Color,
			"emoji": e.Mood.Emoji,
			"name":  e.Mood.Name,
		}
	}
	if e.Chapter != nil {
		out["chapter"] = gin.H{
			"id":           e.Chapter.ID,
			"title":        e.Chapter.Title,
			"slug":         store.SlugValue(e.Chapter.Slug),
			"color":        e.Chapter.Color,
			"is_favourite": e.Chapter.IsFavourite,
		}
	}
	return out
}

func entryDetailJSON(e *models.Entry) gin.H {
	out := entryJSON(e)
	out["content_html"] = renderMarkdown(e.Content)
	return out
}

func chapterEntryJSON(e models.Entry) gin.H {
	return gin.H{
		"id":           e.ID,
		"title":        e.Title,
		"content":      e.Content,
		"slug":         store.SlugValue(e.Slug),
		"is_archived":  e.IsArchived,
		"is_favourite": e.IsFavourite,
		"created_at":   e.CreatedAt,
		"updated_at":   e.UpdatedAt,
		"collection":   collectionRefs(e.Collections),
	}
}

func chapterJSON(ch *models.Chapter) gin.H {
	entries := make([]gin.H, 0, len(ch.Entries))
	for _, e := range ch.Entries {
		entries = append(entries, chapterEntryJSON(e))
	}
	return gin.H{
		"id":           ch.ID,
		"user":         ch.UserID,
		"color":        ch.Color,
		"title":        ch.Title,
		"description":  ch.Description,
		"is_archived":  ch.IsArchived,
		"is_favourite": ch.IsFavourite,
		"created_at":   ch.CreatedAt,
		"updated_at":   ch.UpdatedAt,
		"slug":         store.SlugValue(ch.Slug),
		"collection":   collectionRefs(ch.Collections),
		"entries":      entries,
	}
}
