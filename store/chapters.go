package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pine/common"
	"pine/models"
)

type ChapterInput struct {
	Title       string
	Description string
	Color       string
	Slug        string
	IsArchived  bool
	IsFavourite bool
	Collections []uint
	// Entries are existing entries moved into the new chapter.
	Entries []uint
}

type ChapterPatch struct {
	Title       *string
	Description *string
	Color       *string
	Slug        *string
	Collections *[]uint
	// Entries, when set, becomes the exact membership of the chapter.
	Entries *[]uint
}

func (s *Store) CreateChapter(ctx context.Context, userID uint, in ChapterInput) (*models.Chapter, error) {
	source := in.Slug
	if source == "" {
		source = in.Title
	}
	now := s.now()

	chapter := models.Chapter{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Color:       in.Color,
		Slug:        slugFor(source, 255),
		IsArchived:  in.IsArchived,
		IsFavourite: in.IsFavourite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		collectionIDs, err := ownedCollections(tx, userID, in.Collections)
		if err != nil {
			return err
		}
		entryIDs, err := ownedEntries(tx, userID, in.Entries)
		if err != nil {
			return err
		}
		if err := ensureSlugFree(tx, &models.Chapter{}, "chapter", chapter.Slug, 0); err != nil {
			return err
		}

		if err := tx.Create(&chapter).Error; err != nil {
			return err
		}
		if err := replaceCollectionLinks(tx, chapterCollections, "chapter_id", chapter.ID, collectionIDs); err != nil {
			return err
		}
		if len(entryIDs) > 0 {
			if err := tx.Model(&models.Entry{}).Where("id IN ?", entryIDs).UpdateColumn("chapter_id", chapter.ID).Error; err != nil {
				return err
			}
		}
		return touchCollections(tx, chapterCollections, "chapter_id", chapter.ID, now)
	})
	if err != nil {
		return nil, uniqueViolation(err, "chapter with this slug already exists.")
	}
	return s.GetChapter(ctx, userID, chapter.ID)
}

func (s *Store) UpdateChapter(ctx context.Context, userID, id uint, patch ChapterPatch) (*models.Chapter, error) {
	now := s.now()

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var chapter models.Chapter
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&chapter).Error; err != nil {
			return notFound(err, "Chapter not found.")
		}

		updates := map[string]any{"updated_at": now}
		title := chapter.Title
		if patch.Title != nil {
			title = strings.TrimSpace(*patch.Title)
			updates["title"] = title
		}
		if patch.Description != nil {
			updates["description"] = strings.TrimSpace(*patch.Description)
		}
		if patch.Color != nil {
			updates["color"] = *patch.Color
		}
		if patch.Slug != nil {
			source := *patch.Slug
			if source == "" {
				source = title
			}
			slug := slugFor(source, 255)
			if err := ensureSlugFree(tx, &models.Chapter{}, "chapter", slug, chapter.ID); err != nil {
				return err
			}
			updates["slug"] = slug
		}

		if err := tx.Model(&models.Chapter{}).Where("id = ?", chapter.ID).Updates(updates).Error; err != nil {
			return err
		}

		if patch.Collections != nil {
			collectionIDs, err := ownedCollections(tx, userID, *patch.Collections)
			if err != nil {
				return err
			}
			if err := replaceCollectionLinks(tx, chapterCollections, "chapter_id", chapter.ID, collectionIDs); err != nil {
				return err
			}
		}

		if patch.Entries != nil {
			entryIDs, err := ownedEntries(tx, userID, *patch.Entries)
			if err != nil {
				return err
			}
			err = tx.Model(&models.Entry{}).
				Where("chapter_id = ? AND user_id = ?", chapter.ID, userID).
				UpdateColumn("chapter_id", nil).Error
			if err != nil {
				return err
			}
			if len(entryIDs) > 0 {
				if err := tx.Model(&models.Entry{}).Where("id IN ?", entryIDs).UpdateColumn("chapter_id", chapter.ID).Error; err != nil {
					return err
				}
			}
		}

		return touchCollections(tx, chapterCollections, "chapter_id", chapter.ID, now)
	})
	if err != nil {
		return nil, uniqueViolation(err, "chapter with this slug already exists.")
	}
	return s.GetChapter(ctx, userID, id)
}

func (s *Store) SetChapterFavourite(ctx context.Context, userID, id uint, favourite bool) error {
	return s.setChapterFlag(ctx, userID, id, "is_favourite", favourite)
}

func (s *Store) SetChapterArchived(ctx context.Context, userID, id uint, archived bool) error {
	return s.setChapterFlag(ctx, userID, id, "is_archived", archived)
}

func (s *Store) setChapterFlag(ctx context.Context, userID, id uint, column string, value bool) error {
	now := s.now()
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Chapter{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]any{column: value, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.NewNotFound("Chapter not found.")
		}
		return touchCollections(tx, chapterCollections, "chapter_id", id, now)
	})
	return storageError(err)
}

func (s *Store) GetChapter(ctx context.Context, userID, id uint) (*models.Chapter, error) {
	var chapter models.Chapter
	err := chapterQuery(s.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&chapter).Error
	if err != nil {
		return nil, notFound(err, "Chapter not found.")
	}
	return &chapter, nil
}

func (s *Store) ListChapters(ctx context.Context, userID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := chapterQuery(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&chapters).Error
	if err != nil {
		return nil, storageError(err)
	}
	return chapters, nil
}

func chapterQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Collections").
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Entries.Collections")
}

// DeleteChapter removes the chapter. Its entries survive without a chapter.
func (s *Store) DeleteChapter(ctx context.Context, userID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Chapter{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.NewNotFound("Chapter not found.")
		}
		return deleteRow(tx, "chapters", id)
	})
	return storageError(err)
}

func ownedEntries(tx *gorm.DB, userID uint, ids []uint) ([]uint, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	var count int64
	if err := tx.Model(&models.Entry{}).Where("id IN ? AND user_id = ?", ids, userID).Count(&count).Error; err != nil {
		return nil, storageError(err)
	}
	if count != int64(len(ids)) {
		return nil, common.NewValidation("some entries do not belong to the user")
	}
	return ids, nil
}
