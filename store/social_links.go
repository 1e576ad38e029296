package store

import (
	"context"

	"gorm.io/gorm/clause"

	"pine/common"
	"pine/models"
)

// SocialPlatforms lists the accepted SocialLink names.
var SocialPlatforms = []string{"Instagram", "Twitter", "LinkedIn", "Facebook", "GitHub", "YouTube", "Personal", "Other"}

func (s *Store) ListSocialLinks(ctx context.Context, userID uint) ([]models.SocialLink, error) {
	var links []models.SocialLink
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&links).Error; err != nil {
		return nil, storageError(err)
	}
	return links, nil
}

// UpsertSocialLink keeps a single link per (user, platform).
func (s *Store) UpsertSocialLink(ctx context.Context, userID uint, name, link string) (*models.SocialLink, error) {
	row := models.SocialLink{UserID: userID, Name: name, Link: link, CreatedAt: s.now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"link"}),
	}).Create(&row).Error
	if err != nil {
		return nil, storageError(err)
	}

	var saved models.SocialLink
	if err := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&saved).Error; err != nil {
		return nil, storageError(err)
	}
	return &saved, nil
}

func (s *Store) DeleteSocialLink(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.SocialLink{})
	if res.Error != nil {
		return storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NewNotFound("Social link not found.")
	}
	return nil
}
