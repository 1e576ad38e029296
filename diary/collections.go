package diary

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pine/common"
	"pine/store"
)

type collectionRequest struct {
	Name  string `json:"name"`
	Slug  string `json:"slug" binding:"max=50"`
	Color string `json:"color" binding:"max=50"`
}

func (d *DiaryModule) createCollection(c *gin.Context) {
	var input collectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	collection, err := d.store.CreateCollection(c.Request.Context(), userID(c), store.CollectionInput{
		Name:  input.Name,
		Slug:  input.Slug,
		Color: input.Color,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusCreated, "Collection created successfully", collectionJSON(*collection))
}

func (d *DiaryModule) listCollections(c *gin.Context) {
	summaries, err := d.store.ListCollections(c.Request.Context(), userID(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		data = append(data, collectionSummaryJSON(s))
	}
	common.RespondList(c, http.StatusOK, "Collections fetched successfully", len(data), data)
}

func (d *DiaryModule) deleteCollection(c *gin.Context) {
	id, ok := pathID(c, "Collection not found.")
	if !ok {
		return
	}

	if err := d.store.DeleteCollection(c.Request.Context(), userID(c), id); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondMessage(c, http.StatusOK, "Collection deleted successfully.")
}
