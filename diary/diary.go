// Package diary serves the journal resources: entries, collections, moods and
// chapters. Every route requires an authenticated principal and only ever
// touches that principal's rows.
package diary

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"pine/auth"
	"pine/cache"
	"pine/common"
	"pine/store"
)

type DiaryModule struct {
	store *store.Store
	cache *cache.Store
}

func NewDiaryModule(st *store.Store, pageCache *cache.Store) *DiaryModule {
	return &DiaryModule{store: st, cache: pageCache}
}

func (d *DiaryModule) RegisterRoutes(router gin.IRouter, requireAuth gin.HandlerFunc) {
	cached := d.cache.Middleware()

	entries := router.Group("/entries", requireAuth, d.cache.InvalidateOnWrite())
	{
		entries.POST("/create-new", d.createEntry)
		entries.GET("/all", cached, d.listEntries)
		entries.GET("/details/:id", cached, d.getEntry)
		entries.PUT("/details/:id", d.updateEntry)
		entries.PATCH("/details/:id", d.updateEntry)
		entries.DELETE("/details/:id", d.deleteEntry)
		entries.DELETE("/delete/:id", d.deleteEntry)
		entries.POST("/mark-favourite/:id", d.favouriteEntry)
		entries.POST("/archive/:id", d.archiveEntry)
	}

	collections := router.Group("/collections", requireAuth, d.cache.InvalidateOnWrite())
	{
		collections.POST("/create-new", d.createCollection)
		collections.GET("/all", cached, d.listCollections)
		collections.DELETE("/delete/:id", d.deleteCollection)
	}

	moods := router.Group("/moods", requireAuth, d.cache.InvalidateOnWrite())
	{
		moods.POST("/create-new", d.createMood)
		moods.GET("/all", cached, d.listMoods)
		moods.DELETE("/delete/:id", d.deleteMood)
	}

	chapters := router.Group("/chapters", requireAuth, d.cache.InvalidateOnWrite())
	{
		chapters.POST("/create-new", d.createChapter)
		chapters.GET("/all", cached, d.listChapters)
		chapters.PUT("/update/:id", d.updateChapter)
		chapters.PATCH("/update/:id", d.updateChapter)
		chapters.DELETE("/delete/:id", d.deleteChapter)
		chapters.POST("/mark-favourite/:id", d.favouriteChapter)
		chapters.POST("/archive/:id", d.archiveChapter)
	}
}

// pathID parses the :id parameter. Ids that cannot exist are reported the
// same way as rows that do not exist.
func pathID(c *gin.Context, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.RespondError(c, common.NewNotFound(notFound))
		return 0, false
	}
	return uint(id), true
}

func userID(c *gin.Context) uint {
	return auth.CurrentUserID(c)
}

// toggleState names the new flag value in response messages.
func toggleState(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}

// queryBool reads an optional true/false query parameter.
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, common.NewValidation(name + ": Must be a valid boolean.")
	}
	return &v, nil
}
