package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pine/common"
	"pine/models"
)

type EntryInput struct {
	Title       string
	Content     string
	Slug        string
	IsArchived  bool
	IsFavourite bool
	Collections []uint
	MoodID      *uint
	ChapterID   *uint
}

// EntryPatch holds a partial update. Nil pointers and unset Optionals leave
// the stored value alone. An empty Slug clears it and re-derives it from the title.
type EntryPatch struct {
	Title       *string
	Content     *string
	Slug        *string
	IsArchived  *bool
	IsFavourite *bool
	Collections *[]uint
	MoodID      Optional[uint]
	ChapterID   Optional[uint]
}

type EntryFilter struct {
	IsFavourite *bool
	IsArchived  *bool
}

func (s *Store) CreateEntry(ctx context.Context, userID uint, in EntryInput) (*models.Entry, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, common.NewValidation("content: This field is required.")
	}

	source := in.Slug
	if source == "" {
		source = in.Title
	}
	now := s.now()

	entry := models.Entry{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Slug:        slugFor(source, 255),
		IsArchived:  in.IsArchived,
		IsFavourite: in.IsFavourite,
		MoodID:      in.MoodID,
		ChapterID:   in.ChapterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := checkMood(tx, userID, in.MoodID); err != nil {
			return err
		}
		if err := checkChapter(tx, userID, in.ChapterID); err != nil {
			return err
		}
		collectionIDs, err := ownedCollections(tx, userID, in.Collections)
		if err != nil {
			return err
		}
		if err := ensureSlugFree(tx, &models.Entry{}, "entry", entry.Slug, 0); err != nil {
			return err
		}

		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := replaceCollectionLinks(tx, entryCollections, "entry_id", entry.ID, collectionIDs); err != nil {
			return err
		}
		return touchCollections(tx, entryCollections, "entry_id", entry.ID, now)
	})
	if err != nil {
		return nil, uniqueViolation(err, "entry with this slug already exists.")
	}
	return s.GetEntry(ctx, userID, entry.ID)
}

func (s *Store) UpdateEntry(ctx context.Context, userID, id uint, patch EntryPatch) (*models.Entry, error) {
	now := s.now()

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var entry models.Entry
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&entry).Error; err != nil {
			return notFound(err, "Entry not found.")
		}

		updates := map[string]any{"updated_at": now}
		title := entry.Title
		if patch.Title != nil {
			title = strings.TrimSpace(*patch.Title)
			updates["title"] = title
		}
		if patch.Content != nil {
			if strings.TrimSpace(*patch.Content) == "" {
				return common.NewValidation("content: This field may not be blank.")
			}
			updates["content"] = *patch.Content
		}
		if patch.Slug != nil {
			source := *patch.Slug
			if source == "" {
				source = title
			}
			slug := slugFor(source, 255)
			if err := ensureSlugFree(tx, &models.Entry{}, "entry", slug, entry.ID); err != nil {
				return err
			}
			updates["slug"] = slug
		}
		if patch.IsArchived != nil {
			updates["is_archived"] = *patch.IsArchived
		}
		if patch.IsFavourite != nil {
			updates["is_favourite"] = *patch.IsFavourite
		}
		if patch.MoodID.Set {
			if err := checkMood(tx, userID, patch.MoodID.Value); err != nil {
				return err
			}
			updates["mood_id"] = patch.MoodID.Value
		}
		if patch.ChapterID.Set {
			if err := checkChapter(tx, userID, patch.ChapterID.Value); err != nil {
				return err
			}
			updates["chapter_id"] = patch.ChapterID.Value
		}

		if err := tx.Model(&models.Entry{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
			return err
		}

		if patch.Collections != nil {
			collectionIDs, err := ownedCollections(tx, userID, *patch.Collections)
			if err != nil {
				return err
			}
			if err := replaceCollectionLinks(tx, entryCollections, "entry_id", entry.ID, collectionIDs); err != nil {
				return err
			}
		}
		return touchCollections(tx, entryCollections, "entry_id", entry.ID, now)
	})
	if err != nil {
		return nil, uniqueViolation(err, "entry with this slug already exists.")
	}
	return s.GetEntry(ctx, userID, id)
}

func (s *Store) SetEntryFavourite(ctx context.Context, userID, id uint, favourite bool) error {
	return s.setEntryFlag(ctx, userID, id, "is_favourite", favourite)
}

func (s *Store) SetEntryArchived(ctx context.Context, userID, id uint, archived bool) error {
	return s.setEntryFlag(ctx, userID, id, "is_archived", archived)
}

// setEntryFlag is a save of the entry like any other, so it also refreshes
// the linked collections.
func (s *Store) setEntryFlag(ctx context.Context, userID, id uint, column string, value bool) error {
	now := s.now()
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Entry{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]any{column: value, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.NewNotFound("Entry not found.")
		}
		return touchCollections(tx, entryCollections, "entry_id", id, now)
	})
	return storageError(err)
}

func (s *Store) GetEntry(ctx context.Context, userID, id uint) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).
		Preload("Collections").
		Preload("Mood").
		Preload("Chapter").
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err, "Entry not found.")
	}
	return &entry, nil
}

// ListEntries returns the user's entries, newest first.
func (s *Store) ListEntries(ctx context.Context, userID uint, filter EntryFilter) ([]models.Entry, error) {
	q := s.db.WithContext(ctx).
		Preload("Collections").
		Preload("Mood").
		Preload("Chapter").
		Where("user_id = ?", userID)
	if filter.IsFavourite != nil {
		q = q.Where("is_favourite = ?", *filter.IsFavourite)
	}
	if filter.IsArchived != nil {
		q = q.Where("is_archived = ?", *filter.IsArchived)
	}

	var entries []models.Entry
	if err := q.Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, storageError(err)
	}
	return entries, nil
}

func (s *Store) DeleteEntry(ctx context.Context, userID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Entry{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.NewNotFound("Entry not found.")
		}
		return deleteRow(tx, "entries", id)
	})
	return storageError(err)
}

func checkMood(tx *gorm.DB, userID uint, moodID *uint) error {
	if moodID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Mood{}).Where("id = ? AND user_id = ?", *moodID, userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return common.NewValidation("invalid mood id")
	}
	return nil
}

func checkChapter(tx *gorm.DB, userID uint, chapterID *uint) error {
	if chapterID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Chapter{}).Where("id = ? AND user_id = ?", *chapterID, userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return common.NewValidation("invalid chapter id")
	}
	return nil
}
