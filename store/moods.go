package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pine/common"
	"pine/models"
)

type MoodInput struct {
	Name  string
	Color string
	Emoji string
}

func (s *Store) CreateMood(ctx context.Context, userID uint, in MoodInput) (*models.Mood, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, common.NewValidation("name: This field is required.")
	}
	owner := userID
	mood := models.Mood{
		UserID:    &owner,
		Name:      strings.TrimSpace(in.Name),
		Color:     in.Color,
		Emoji:     in.Emoji,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&mood).Error; err != nil {
		return nil, storageError(err)
	}
	return &mood, nil
}

func (s *Store) ListMoods(ctx context.Context, userID uint) ([]models.Mood, error) {
	var moods []models.Mood
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&moods).Error; err != nil {
		return nil, storageError(err)
	}
	return moods, nil
}

// DeleteMood removes the mood. Entries tagged with it lose the tag only.
func (s *Store) DeleteMood(ctx context.Context, userID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Mood{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.NewNotFound("Mood not found.")
		}
		return deleteRow(tx, "moods", id)
	})
	return storageError(err)
}
