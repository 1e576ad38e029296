package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pine/common"
	"pine/database"
	"pine/models"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

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
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		panic("failed to migrate database")
	}
	return db
}

func setupTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	s := New(setupTestDB())
	s.PasswordCost = bcrypt.MinCost
	clock := &testClock{t: baseTime}
	s.SetClock(clock.now)
	return s, clock
}

func createTestUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), NewUser{
		Email:    email,
		Name:     "Test User",
		Password: "password123",
		IsActive: true,
	})
	require.NoError(t, err)
	return user
}

func assertKind(t *testing.T, err error, kind common.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, common.IsKind(err, kind), "expected %s, got %v", kind, err)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "alice@example.com")

	_, err := s.CreateUser(ctx, NewUser{Email: "alice@EXAMPLE.com", Password: "x"})
	assertKind(t, err, common.KindValidation)
}

func TestUserPassword(t *testing.T) {
	s, _ := setupTestStore(t)
	user := createTestUser(t, s, "alice@example.com")

	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, s.CheckPassword(user, "password123"))
	assert.False(t, s.CheckPassword(user, "wrong"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Alice@example.com", NormalizeEmail("  Alice@EXAMPLE.COM "))
	assert.Equal(t, "no-at-sign", NormalizeEmail("no-at-sign"))
}

func TestOTPFlow(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, NewUser{Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	otp, err := s.IssueOTP(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, otp, 6)

	_, err = s.VerifyOTP(ctx, "bob@example.com", "000000")
	assertKind(t, err, common.KindValidation)

	verified, err := s.VerifyOTP(ctx, "bob@example.com", otp)
	require.NoError(t, err)
	assert.True(t, verified.IsActive)

	_, err = s.VerifyOTP(ctx, "bob@example.com", otp)
	assertKind(t, err, common.KindValidation)

	other, err := s.CreateUser(ctx, NewUser{Email: "carol@example.com", Password: "pw"})
	require.NoError(t, err)
	otp, err = s.IssueOTP(ctx, other.ID)
	require.NoError(t, err)
	clock.advance(11 * time.Minute)
	_, err = s.VerifyOTP(ctx, "carol@example.com", otp)
	assertKind(t, err, common.KindValidation)
}

func TestUpdateProfile(t *testing.T) {
	s, _ := setupTestStore(t)
	user := createTestUser(t, s, "alice@example.com")

	name := "Alice"
	updated, err := s.UpdateProfile(context.Background(), user.ID, ProfilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, user.Email, updated.Email)
}

func TestSocialLinks(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, s, "alice@example.com")

	_, err := s.UpsertSocialLink(ctx, user.ID, "GitHub", "https://github.com/a")
	require.NoError(t, err)
	link, err := s.UpsertSocialLink(ctx, user.ID, "GitHub", "https://github.com/alice")
	require.NoError(t, err)

	links, err := s.ListSocialLinks(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://github.com/alice", links[0].Link)

	require.NoError(t, s.DeleteSocialLink(ctx, user.ID, link.ID))
	assertKind(t, s.DeleteSocialLink(ctx, user.ID, link.ID), common.KindNotFound)
}

func TestRevocationList(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	revoked, err := s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.RevokeToken(ctx, "jti-1", 1, baseTime.Add(time.Hour)))
	require.NoError(t, s.RevokeToken(ctx, "jti-1", 1, baseTime.Add(time.Hour)))
	require.NoError(t, s.RevokeToken(ctx, "jti-2", 1, baseTime.Add(-time.Hour)))

	revoked, err = s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	pruned, err := s.PruneRevokedTokens(ctx, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	revoked, err = s.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
	revoked, err = s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var body struct {
		Mood    Optional[uint] `json:"mood"`
		Chapter Optional[uint] `json:"chapter"`
		Other   Optional[uint] `json:"other"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mood": 3, "chapter": null}`), &body))

	assert.True(t, body.Mood.Set)
	require.NotNil(t, body.Mood.Value)
	assert.Equal(t, uint(3), *body.Mood.Value)
	assert.True(t, body.Chapter.Set)
	assert.Nil(t, body.Chapter.Value)
	assert.False(t, body.Other.Set)
}
