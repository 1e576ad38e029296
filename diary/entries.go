package diary

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pine/common"
	"pine/store"
)

type entryRequest struct {
	Title       string `json:"title" binding:"max=255"`
	Content     string `json:"content"`
	Slug        string `json:"slug" binding:"max=255"`
	IsArchived  bool   `json:"is_archived"`
	IsFavourite bool   `json:"is_favourite"`
	Collection  []uint `json:"collection"`
	Mood        *uint  `json:"mood"`
	Chapter     *uint  `json:"chapter"`
}

type entryPatchRequest struct {
	Title       *string              `json:"title" binding:"omitempty,max=255"`
	Content     *string              `json:"content"`
	Slug        *string              `json:"slug" binding:"omitempty,max=255"`
	IsArchived  *bool                `json:"is_archived"`
	IsFavourite *bool                `json:"is_favourite"`
	Collection  *[]uint              `json:"collection"`
	Mood        store.Optional[uint] `json:"mood"`
	Chapter     store.Optional[uint] `json:"chapter"`
}

func (d *DiaryModule) createEntry(c *gin.Context) {
	var input entryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	entry, err := d.store.CreateEntry(c.Request.Context(), userID(c), store.EntryInput{
		Title:       input.Title,
		Content:     input.Content,
		Slug:        input.Slug,
		IsArchived:  input.IsArchived,
		IsFavourite: input.IsFavourite,
		Collections: input.Collection,
		MoodID:      input.Mood,
		ChapterID:   input.Chapter,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusCreated, "Entry created successfully", entryJSON(entry))
}

func (d *DiaryModule) listEntries(c *gin.Context) {
	var filter store.EntryFilter
	var err error
	if filter.IsFavourite, err = queryBool(c, "is_favourite"); err != nil {
		common.RespondError(c, err)
		return
	}
	if filter.IsArchived, err = queryBool(c, "is_archived"); err != nil {
		common.RespondError(c, err)
		return
	}

	entries, err := d.store.ListEntries(c.Request.Context(), userID(c), filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(entries))
	for i := range entries {
		data = append(data, entryJSON(&entries[i]))
	}
	common.RespondList(c, http.StatusOK, "Entries fetched successfully", len(data), data)
}

func (d *DiaryModule) getEntry(c *gin.Context) {
	id, ok := pathID(c, "Entry not found.")
	if !ok {
		return
	}

	entry, err := d.store.GetEntry(c.Request.Context(), userID(c), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusOK, "Entry fetched successfully", entryDetailJSON(entry))
}

func (d *DiaryModule) updateEntry(c *gin.Context) {
	id, ok := pathID(c, "Entry not found.")
	if !ok {
		return
	}

	var input entryPatchRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	entry, err := d.store.UpdateEntry(c.Request.Context(), userID(c), id, store.EntryPatch{
		Title:       input.Title,
		Content:     input.Content,
		Slug:        input.Slug,
		IsArchived:  input.IsArchived,
		IsFavourite: input.IsFavourite,
		Collections: input.Collection,
		MoodID:      input.Mood,
		ChapterID:   input.Chapter,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusOK, "Entry updated successfully", entryJSON(entry))
}

func (d *DiaryModule) deleteEntry(c *gin.Context) {
	id, ok := pathID(c, "Entry not found.")
	if !ok {
		return
	}

	if err := d.store.DeleteEntry(c.Request.Context(), userID(c), id); err != nil {
		common.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type favouriteRequest struct {
	IsFavourite *bool `json:"is_favourite"`
}

type archiveRequest struct {
	IsArchived *bool `json:"is_archived"`
}

func (d *DiaryModule) favouriteEntry(c *gin.Context) {
	id, ok := pathID(c, "Entry not found.")
	if !ok {
		return
	}

	var input favouriteRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.IsFavourite == nil {
		common.RespondError(c, common.NewValidation("Missing 'is_favourite' in request body."))
		return
	}

	if err := d.store.SetEntryFavourite(c.Request.Context(), userID(c), id, *input.IsFavourite); err != nil {
		common.RespondError(c, err)
		return
	}
	state := toggleState(*input.IsFavourite, "favourited", "unfavourited")
	common.RespondMessage(c, http.StatusOK, "Entry "+state+" successfully.")
}

func (d *DiaryModule) archiveEntry(c *gin.Context) {
	id, ok := pathID(c, "Entry not found.")
	if !ok {
		return
	}

	var input archiveRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.IsArchived == nil {
		common.RespondError(c, common.NewValidation("Missing 'is_archived' in request body."))
		return
	}

	if err := d.store.SetEntryArchived(c.Request.Context(), userID(c), id, *input.IsArchived); err != nil {
		common.RespondError(c, err)
		return
	}
	state := toggleState(*input.IsArchived, "archived", "unarchived")
	common.RespondMessage(c, http.StatusOK, "Entry "+state+" successfully.")
}
