package diary

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pine/common"
	"pine/store"
)

type moodRequest struct {
	Name  string `json:"name" binding:"max=100"`
	Color string `json:"color" binding:"max=100"`
	Emoji string `json:"emoji" binding:"max=100"`
}

func (d *DiaryModule) createMood(c *gin.Context) {
	var input moodRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	mood, err := d.store.CreateMood(c.Request.Context(), userID(c), store.MoodInput{
		Name:  input.Name,
		Color: input.Color,
		Emoji: input.Emoji,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusCreated, "Mood Created Successfully", moodJSON(*mood))
}

func (d *DiaryModule) listMoods(c *gin.Context) {
	moods, err := d.store.ListMoods(c.Request.Context(), userID(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	data := make([]gin.H, 0, len(moods))
	for _, m := range moods {
		data = append(data, moodJSON(m))
	}
	common.RespondList(c, http.StatusOK, "Moods fetched successfully.", len(data), data)
}

func (d *DiaryModule) deleteMood(c *gin.Context) {
	id, ok := pathID(c, "Mood not found.")
	if !ok {
		return
	}

	if err := d.store.DeleteMood(c.Request.Context(), userID(c), id); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondMessage(c, http.StatusOK, "Mood deleted successfully.")
}
