// Package auth issues and checks JWT access/refresh pairs, bridges the auth
// cookies onto request headers and serves the account endpoints.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pine/common"
	"pine/models"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

// CredentialStore is what the token service needs from persistence.
type CredentialStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
	HashPassword(password string) (string, error)
	RevokeToken(ctx context.Context, tokenID string, userID uint, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	PruneRevokedTokens(ctx context.Context, before time.Time) (int64, error)
}

type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	User   *models.User
	Claims *Claims
}

type TokenService struct {
	store CredentialStore
	cfg   common.TokenConfig
	now   func() time.Time

	dummyOnce sync.Once
	dummyUser *models.User
}

func NewTokenService(creds CredentialStore, cfg common.TokenConfig) *TokenService {
	return &TokenService{
		store: creds,
		cfg:   cfg,
		now:   time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TokenService) AccessLifetime() time.Duration  { return s.cfg.AccessLifetime }
func (s *TokenService) RefreshLifetime() time.Duration { return s.cfg.RefreshLifetime }

// burnPasswordCheck runs a password comparison against a throwaway hash made
// with the store's own cost, so an unknown email takes as long as a wrong
// password.
func (s *TokenService) burnPasswordCheck(password string) {
	s.dummyOnce.Do(func() {
		s.dummyUser = &models.User{}
		if h, err := s.store.HashPassword("pine-dummy-password"); err == nil {
			s.dummyUser.PasswordHash = h
		}
	})
	s.store.CheckPassword(s.dummyUser, password)
}

// Issue checks the credentials and returns a fresh token pair. Unknown email
// and wrong password fail with the same InvalidCredentials error.
func (s *TokenService) Issue(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			s.burnPasswordCheck(password)
			return nil, nil, common.NewInvalidCredentials()
		}
		return nil, nil, err
	}
	if !s.store.CheckPassword(user, password) {
		return nil, nil, common.NewInvalidCredentials()
	}

	access, err := s.sign(user, AccessToken, s.cfg.AccessLifetime)
	if err != nil {
		return nil, nil, common.NewInternal(err)
	}
	refresh, err := s.sign(user, RefreshToken, s.cfg.RefreshLifetime)
	if err != nil {
		return nil, nil, common.NewInternal(err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, user, nil
}

// Validate resolves an access token to its principal.
func (s *TokenService) Validate(ctx context.Context, access string) (*Principal, error) {
	claims, err := s.parse(access, AccessToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.store.UserByID(ctx, claims.UserID)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil, common.NewUnauthenticated("User not found")
		}
		return nil, err
	}
	return &Principal{User: user, Claims: claims}, nil
}

// Refresh trades a valid refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.parse(refresh, RefreshToken)
	if err != nil {
		return "", err
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return "", err
	}

	user, err := s.store.UserByID(ctx, claims.UserID)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return "", common.NewUnauthenticated("User not found")
		}
		return "", err
	}

	access, err := s.sign(user, AccessToken, s.cfg.AccessLifetime)
	if err != nil {
		return "", common.NewInternal(err)
	}
	return access, nil
}

// Revoke puts the refresh token on the revocation list. Revoking a token that
// is already listed succeeds. Access tokens minted from the same session stay
// valid until they expire.
func (s *TokenService) Revoke(ctx context.Context, refresh string) error {
	claims, err := s.parse(refresh, RefreshToken)
	if err != nil {
		return err
	}
	return s.store.RevokeToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
}

// RevokeOwned is Revoke for a token that must belong to userID. A token of
// another user is left untouched.
func (s *TokenService) RevokeOwned(ctx context.Context, userID uint, refresh string) error {
	claims, err := s.parse(refresh, RefreshToken)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return common.NewValidation("Token belongs to another user")
	}
	return s.store.RevokeToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
}

// PruneRevoked drops revocation rows for tokens that have expired anyway.
func (s *TokenService) PruneRevoked(ctx context.Context) (int64, error) {
	return s.store.PruneRevokedTokens(ctx, s.now())
}

func (s *TokenService) sign(user *models.User, tokenType string, lifetime time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.cfg.Secret)
}

func (s *TokenService) parse(raw, tokenType string) (*Claims, error) {
	if raw == "" {
		return nil, common.NewUnauthenticated("Token is invalid")
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.NewUnauthenticated("Token is expired")
		}
		return nil, common.NewUnauthenticated("Token is invalid")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || claims.UserID == 0 {
		return nil, common.NewUnauthenticated("Token is invalid")
	}
	if claims.TokenType != tokenType {
		return nil, common.NewUnauthenticated("Token has wrong type")
	}
	return claims, nil
}

func (s *TokenService) checkNotRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return common.NewUnauthenticated("Token is blacklisted")
	}
	return nil
}
