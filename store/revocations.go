package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"pine/models"
)

// RevokeToken adds tokenID to the revocation list. Revoking an id that is
// already listed is a no-op.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, userID uint, expiresAt time.Time) error {
	row := models.RevokedToken{
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		RevokedAt: s.now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoNothing: true,
	}).Create(&row).Error
	return storageError(err)
}

func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("token_id = ?", tokenID).Count(&count).Error; err != nil {
		return false, storageError(err)
	}
	return count > 0, nil
}

// PruneRevokedTokens drops entries whose token has expired on its own.
func (s *Store) PruneRevokedTokens(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.RevokedToken{})
	return res.RowsAffected, storageError(res.Error)
}
