package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pine/common"
	"pine/models"
)

type CollectionInput struct {
	Name  string
	Color string
	Slug  string
}

// CollectionSummary is a collection annotated with how many entries and
// chapters are filed under it.
type CollectionSummary struct {
	models.Collection
	EntriesCount  int64
	ChaptersCount int64
}

func (s *Store) CreateCollection(ctx context.Context, userID uint, in CollectionInput) (*models.Collection, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, common.NewValidation("name: This field is required.")
	}
	if len(name) > 50 {
		return nil, common.NewValidation("name: Ensure this field has no more than 50 characters.")
	}

	source := in.Slug
	if source == "" {
		source = name
	}

	collection := models.Collection{
		UserID:   userID,
		Name:     name,
		Slug:     slugFor(source, 50),
		Color:    in.Color,
		LastUsed: s.now(),
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Collection{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.NewValidation("collection with this name already exists.")
		}
		if err := ensureSlugFree(tx, &models.Collection{}, "collection", collection.Slug, 0); err != nil {
			return err
		}
		return tx.Create(&collection).Error
	})
	if err != nil {
		return nil, uniqueViolation(err, "collection with this slug already exists.")
	}
	return &collection, nil
}

func (s *Store) GetCollection(ctx context.Context, userID, id uint) (*models.Collection, error) {
	var collection models.Collection
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&collection).Error; err != nil {
		return nil, notFound(err, "Collection not found.")
	}
	return &collection, nil
}

// ListCollections returns the user's collections, most recently used first.
func (s *Store) ListCollections(ctx context.Context, userID uint) ([]CollectionSummary, error) {
	db := s.db.WithContext(ctx)

	var collections []models.Collection
	if err := db.Where("user_id = ?", userID).Order("last_used DESC").Order("id DESC").Find(&collections).Error; err != nil {
		return nil, storageError(err)
	}
	if len(collections) == 0 {
		return []CollectionSummary{}, nil
	}

	ids := make([]uint, 0, len(collections))
	for _, c := range collections {
		ids = append(ids, c.ID)
	}

	entryCounts, err := countLinks(db, entryCollections, ids)
	if err != nil {
		return nil, storageError(err)
	}
	chapterCounts, err := countLinks(db, chapterCollections, ids)
	if err != nil {
		return nil, storageError(err)
	}

	summaries := make([]CollectionSummary, 0, len(collections))
	for _, c := range collections {
		summaries = append(summaries, CollectionSummary{
			Collection:    c,
			EntriesCount:  entryCounts[c.ID],
			ChaptersCount: chapterCounts[c.ID],
		})
	}
	return summaries, nil
}

func countLinks(db *gorm.DB, joinTable string, collectionIDs []uint) (map[uint]int64, error) {
	var rows []struct {
		CollectionID uint
		Total        int64
	}
	err := db.Table(joinTable).
		Select("collection_id, COUNT(*) AS total").
		Where("collection_id IN ?", collectionIDs).
		Group("collection_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CollectionID] = r.Total
	}
	return counts, nil
}

// DeleteCollection removes the collection and its links. Entries and
// chapters filed under it are kept.
func (s *Store) DeleteCollection(ctx context.Context, userID, id uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Collection{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.NewNotFound("Collection not found.")
		}
		return deleteRow(tx, "collections", id)
	})
	return storageError(err)
}
