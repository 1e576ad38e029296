package diary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pine/auth"
	"pine/cache"
	"pine/common"
	"pine/database"
	"pine/store"
)

type nopMailer struct{}

func (nopMailer) SendOTPEmail(to, otp string) error { return nil }

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic("failed to get database handle")
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		panic("failed to migrate database")
	}
	return db
}

type testEnv struct {
	router *gin.Engine
	store  *store.Store
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	st := store.New(setupTestDB())
	st.PasswordCost = bcrypt.MinCost

	tokens := auth.NewTokenService(st, common.TokenConfig{
		Secret:          []byte("test-secret"),
		AccessLifetime:  5 * time.Minute,
		RefreshLifetime: 24 * time.Hour,
	})
	pageCache := cache.New(t.TempDir(), time.Minute)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.SessionBridge())
	auth.NewAuthModule(tokens, st, nopMailer{}, pageCache, common.CookieConfig{
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}).RegisterRoutes(router)
	NewDiaryModule(st, pageCache).RegisterRoutes(router, tokens.RequireAuth())

	return &testEnv{router: router, store: st}
}

// signIn creates an active user and returns its access cookie.
func (e *testEnv) signIn(t *testing.T, email string) *http.Cookie {
	t.Helper()
	_, err := e.store.CreateUser(context.Background(), store.NewUser{
		Email:    email,
		Name:     "Test User",
		Password: "password123",
		IsActive: true,
	})
	require.NoError(t, err)

	w := e.do("POST", "/auth/jwt/create", gin.H{"email": email, "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.AccessCookie {
			return c
		}
	}
	t.Fatal("no access cookie set")
	return nil
}

func (e *testEnv) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req, _ := http.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func dataID(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	data, ok := decode(t, w)["data"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return int(data["id"].(float64))
}

func TestRoutes_RequireAuth(t *testing.T) {
	env := setupTestRouter(t)

	for _, path := range []string{"/entries/all", "/collections/all", "/moods/all", "/chapters/all"} {
		w := env.do("GET", path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Authentication credentials were not provided.", decode(t, w)["detail"])
	}
}

func TestEntryLifecycle(t *testing.T) {
	env := setupTestRouter(t)
	access := env.signIn(t, "alice@example.com")

	w := env.do("POST", "/collections/create-new", gin.H{"name": "Work"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	collectionID := dataID(t, w)

	w = env.do("POST", "/moods/create-new", gin.H{"name": "Calm", "emoji": "🙂"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Mood Created Successfully", decode(t, w)["message"])
	moodID := dataID(t, w)

	w = env.do("POST", "/entries/create-new", gin.H{
		"title":      "My Day",
		"content":    "It was **good**.",
		"collection": []int{collectionID},
		"mood":       moodID,
	}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Entry created successfully", body["message"])
	entry := body["data"].(map[string]any)
	assert.Equal(t, "my-day", entry["slug"])
	assert.Len(t, entry["collection"], 1)
	assert.Equal(t, "Calm", entry["mood"].(map[string]any)["name"])
	entryID := int(entry["id"].(float64))

	w = env.do("GET", fmt.Sprintf("/entries/details/%d", entryID), nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)["data"].(map[string]any)
	assert.Contains(t, detail["content_html"], "<strong>good</strong>")

	w = env.do("PATCH", fmt.Sprintf("/entries/details/%d", entryID), gin.H{"mood": nil, "content": "Edited"}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)["data"].(map[string]any)
	assert.Nil(t, updated["mood"])
	assert.Equal(t, "Edited", updated["content"])
	assert.Equal(t, "my-day", updated["slug"])

	w = env.do("POST", fmt.Sprintf("/entries/mark-favourite/%d", entryID), gin.H{"is_favourite": true}, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Entry favourited successfully.", decode(t, w)["message"])

	w = env.do("GET", "/entries/all?is_favourite=true", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 1, list["count"])
	assert.Equal(t, true, list["data"].([]any)[0].(map[string]any)["is_favourite"])

	w = env.do("POST", fmt.Sprintf("/entries/archive/%d", entryID), gin.H{"is_archived": false}, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Entry unarchived successfully.", decode(t, w)["message"])

	w = env.do("DELETE", fmt.Sprintf("/entries/delete/%d", entryID), nil, access)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("GET", fmt.Sprintf("/entries/details/%d", entryID), nil, access)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJournalFlow_EndToEnd(t *testing.T) {
	env := setupTestRouter(t)
	_, err := env.store.CreateUser(context.Background(), store.NewUser{
		Email:    "carol@example.com",
		Password: "password123",
		IsActive: true,
	})
	require.NoError(t, err)

	w := env.do("POST", "/login", gin.H{"email": "carol@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pair := decode(t, w)
	access := &http.Cookie{Name: auth.AccessCookie, Value: pair["access"].(string)}

	w = env.do("POST", "/entries/create-new", gin.H{"title": "My Day", "content": "x"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "my-day", entry["slug"])

	w = env.do("POST", fmt.Sprintf("/entries/mark-favourite/%d", int(entry["id"].(float64))), gin.H{"is_favourite": true}, access)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/entries/all", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)["data"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, true, listed[0].(map[string]any)["is_favourite"])

	for i := 0; i < 2; i++ {
		w = env.do("POST", "/auth/logout", gin.H{"refresh": pair["refresh"]}, access)
		assert.Equal(t, http.StatusOK, w.Code, "logout %d", i+1)
	}

	w = env.do("POST", "/auth/jwt/refresh", gin.H{"refresh": pair["refresh"]}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToggles_RequireFlag(t *testing.T) {
	env := setupTestRouter(t)
	access := env.signIn(t, "alice@example.com")

	w := env.do("POST", "/entries/create-new", gin.H{"content": "x"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entryID := dataID(t, w)

	w = env.do("POST", fmt.Sprintf("/entries/mark-favourite/%d", entryID), gin.H{}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing 'is_favourite' in request body.", decode(t, w)["error"])

	w = env.do("POST", fmt.Sprintf("/entries/archive/%d", entryID), gin.H{"is_favourite": true}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing 'is_archived' in request body.", decode(t, w)["error"])

	w = env.do("POST", "/chapters/create-new", gin.H{"title": "Spring"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	chapterID := dataID(t, w)

	w = env.do("POST", fmt.Sprintf("/chapters/archive/%d", chapterID), nil, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEntries_InvalidFilter(t *testing.T) {
	env := setupTestRouter(t)
	access := env.signIn(t, "alice@example.com")

	w := env.do("GET", "/entries/all?is_archived=maybe", nil, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "is_archived: Must be a valid boolean.", decode(t, w)["error"])
}

func TestOtherUsersRowsAreNotFound(t *testing.T) {
	env := setupTestRouter(t)
	alice := env.signIn(t, "alice@example.com")
	bob := env.signIn(t, "bob@example.com")

	w := env.do("POST", "/entries/create-new", gin.H{"title": "Secret", "content": "x"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	entryID := dataID(t, w)

	w = env.do("POST", "/chapters/create-new", gin.H{"title": "Private"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	chapterID := dataID(t, w)

	w = env.do("POST", "/moods/create-new", gin.H{"name": "Tired"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	moodID := dataID(t, w)

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{"GET", fmt.Sprintf("/entries/details/%d", entryID), nil},
		{"PATCH", fmt.Sprintf("/entries/details/%d", entryID), gin.H{"title": "Mine"}},
		{"DELETE", fmt.Sprintf("/entries/delete/%d", entryID), nil},
		{"POST", fmt.Sprintf("/entries/mark-favourite/%d", entryID), gin.H{"is_favourite": true}},
		{"PATCH", fmt.Sprintf("/chapters/update/%d", chapterID), gin.H{"title": "Mine"}},
		{"DELETE", fmt.Sprintf("/chapters/delete/%d", chapterID), nil},
		{"DELETE", fmt.Sprintf("/moods/delete/%d", moodID), nil},
		{"GET", "/entries/details/abc", nil},
	} {
		w := env.do(tc.method, tc.path, tc.body, bob)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}

	w = env.do("GET", "/entries/all", nil, bob)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = env.do("POST", "/entries/create-new", gin.H{"content": "x", "mood": moodID}, bob)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollections_ListAndDelete(t *testing.T) {
	env := setupTestRouter(t)
	access := env.signIn(t, "alice@example.com")

	w := env.do("POST", "/collections/create-new", gin.H{"name": "Travel", "color": "#00ff00"}, access)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Collection created successfully", decode(t, w)["message"])
	collectionID := dataID(t, w)

	w = env.do("POST", "/collections/create-new", gin.H{"name": "Travel"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/entries/create-new", gin.H{"content": "x", "collection": []int{collectionID}}, access)
	require.Equal(t, http.StatusCreated, w.Code)
	entryID := dataID(t, w)

	w = env.do("GET", "/collections/all", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 1, list["count"])
	summary := list["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "travel", summary["slug"])
	assert.EqualValues(t, 1, summary["entries_count"])
	assert.EqualValues(t, 0, summary["chapters_count"])

	w = env.do("DELETE", fmt.Sprintf("/collections/delete/%d", collectionID), nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Collection deleted successfully.", decode(t, w)["message"])

	w = env.do("GET", fmt.Sprintf("/entries/details/%d", entryID), nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["data"].(map[string]any)["collection"])
}

func TestChapters_Membership(t *testing.T) {
	env := setupTestRouter(t)
	access := env.signIn(t, "alice@example.com")

	var entryIDs []int
	for _, title := range []string{"One", "Two", "Three"} {
		w := env.do("POST", "/entries/create-new", gin.H{"title": title, "content": "x"}, access)
		require.Equal(t, http.StatusCreated, w.Code)
		entryIDs = append(entryIDs, dataID(t, w))
	}

	w := env.do("POST", "/chapters/create-new", gin.H{
		"title":   "Spring Trip",
		"entries": entryIDs[:2],
	}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Chapter Created Successfully", body["message"])
	chapter := body["data"].(map[string]any)
	assert.Equal(t, "spring-trip", chapter["slug"])
	assert.Len(t, chapter["entries"], 2)
	chapterID := int(chapter["id"].(float64))

	w = env.do("PUT", fmt.Sprintf("/chapters/update/%d", chapterID), gin.H{"entries": entryIDs[2:]}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entries := decode(t, w)["data"].(map[string]any)["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "Three", entries[0].(map[string]any)["title"])

	w = env.do("GET", fmt.Sprintf("/entries/details/%d", entryIDs[0]), nil, access)
	assert.Nil(t, decode(t, w)["data"].(map[string]any)["chapter"])

	w = env.do("POST", fmt.Sprintf("/chapters/mark-favourite/%d", chapterID), gin.H{"is_favourite": false}, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chapter unfavourited successfully.", decode(t, w)["message"])

	w = env.do("DELETE", fmt.Sprintf("/chapters/delete/%d", chapterID), nil, access)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("GET", fmt.Sprintf("/entries/details/%d", entryIDs[2]), nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["data"].(map[string]any)["chapter"])
}

func TestListCacheIsInvalidatedByWrites(t *testing.T) {
	env := setupTestRouter(t)
	access := env.signIn(t, "alice@example.com")

	w := env.do("GET", "/entries/all", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = env.do("GET", "/entries/all", nil, access)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = env.do("POST", "/entries/create-new", gin.H{"content": "fresh"}, access)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", "/entries/all", nil, access)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, decode(t, w)["count"])
}

func TestQueryBool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query   string
		want    *bool
		wantErr bool
	}{
		{"", nil, false},
		{"?is_archived=", nil, false},
		{"?is_archived=true", boolPtr(true), false},
		{"?is_archived=0", boolPtr(false), false},
		{"?is_archived=yes", nil, true},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/entries/all"+tt.query, nil)

		got, err := queryBool(c, "is_archived")
		if tt.wantErr {
			assert.True(t, common.IsKind(err, common.KindValidation), tt.query)
			continue
		}
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestRenderMarkdown_EscapesRawHTML(t *testing.T) {
	html := renderMarkdown("# Title\n\n<script>alert(1)</script>\n\nsee https://example.com")
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `<a href="https://example.com">`)
}
