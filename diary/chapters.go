package diary

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pine/common"
	"pine/store"
)

type chapterRequest struct {
	Title       string `json:"title" binding:"max=255"`
	Description string `json:"description"`
	Color       string `json:"color" binding:"max=50"`
	Slug        string `json:"slug" binding:"max=255"`
	IsArchived  bool   `json:"is_archived"`
	IsFavourite bool   `json:"is_favourite"`
	Collection  []uint `json:"collection"`
	Entries     []uint `json:"entries"`
}

type chapterPatchRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Color       *string `json:"color" binding:"omitempty,max=50"`
	Slug        *string `json:"slug" binding:"omitempty,max=255"`
	Collection  *[]uint `json:"collection"`
	Entries     *[]uint `json:"entries"`
}

func (d *DiaryModule) createChapter(c *gin.Context) {
	var input chapterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	chapter, err := d.store.CreateChapter(c.Request.Context(), userID(c), store.ChapterInput{
		Title:       input.Title,
		Description: input.Description,
		Color:       input.Color,
		Slug:        input.Slug,
		IsArchived:  input.IsArchived,
		IsFavourite: input.IsFavourite,
		Collections: input.Collection,
		Entries:     input.Entries,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusCreated, "Chapter Created Successfully", chapterJSON(chapter))
}

func (d *DiaryModule) listChapters(c *gin.Context) {
	chapters, err := d.store.ListChapters(c.Request.Context(), userID(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(chapters))
	for i := range chapters {
		data = append(data, chapterJSON(&chapters[i]))
	}
	common.RespondList(c, http.StatusOK, "Chapters fetched successfully.", len(data), data)
}

func (d *DiaryModule) updateChapter(c *gin.Context) {
	id, ok := pathID(c, "Chapter not found.")
	if !ok {
		return
	}

	var input chapterPatchRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	chapter, err := d.store.UpdateChapter(c.Request.Context(), userID(c), id, store.ChapterPatch{
		Title:       input.Title,
		Description: input.Description,
		Color:       input.Color,
		Slug:        input.Slug,
		Collections: input.Collection,
		Entries:     input.Entries,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusOK, "Chapter updated successfully", chapterJSON(chapter))
}

func (d *DiaryModule) deleteChapter(c *gin.Context) {
	id, ok := pathID(c, "Chapter not found.")
	if !ok {
		return
	}

	if err := d.store.DeleteChapter(c.Request.Context(), userID(c), id); err != nil {
		common.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (d *DiaryModule) favouriteChapter(c *gin.Context) {
	id, ok := pathID(c, "Chapter not found.")
	if !ok {
		return
	}

	var input favouriteRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.IsFavourite == nil {
		common.RespondError(c, common.NewValidation("Missing 'is_favourite' in request body."))
		return
	}

	if err := d.store.SetChapterFavourite(c.Request.Context(), userID(c), id, *input.IsFavourite); err != nil {
		common.RespondError(c, err)
		return
	}
	state := toggleState(*input.IsFavourite, "favourited", "unfavourited")
	common.RespondMessage(c, http.StatusOK, "Chapter "+state+" successfully.")
}

func (d *DiaryModule) archiveChapter(c *gin.Context) {
	id, ok := pathID(c, "Chapter not found.")
	if !ok {
		return
	}

	var input archiveRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.IsArchived == nil {
		common.RespondError(c, common.NewValidation("Missing 'is_archived' in request body."))
		return
	}

	if err := d.store.SetChapterArchived(c.Request.Context(), userID(c), id, *input.IsArchived); err != nil {
		common.RespondError(c, err)
		return
	}
	state := toggleState(*input.IsArchived, "archived", "unarchived")
	common.RespondMessage(c, http.StatusOK, "Chapter "+state+" successfully.")
}
