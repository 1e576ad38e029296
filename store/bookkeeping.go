package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"pine/common"
	"pine/models"
)

// link tables between an owner row and collections
const (
	entryCollections   = "entry_collections"
	chapterCollections = "chapter_collections"
)

// ownedCollections loads the collections named by ids and checks that all of
// them belong to userID.
func ownedCollections(tx *gorm.DB, userID uint, ids []uint) ([]uint, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	var count int64
	if err := tx.Model(&models.Collection{}).Where("id IN ? AND user_id = ?", ids, userID).Count(&count).Error; err != nil {
		return nil, storageError(err)
	}
	if count != int64(len(ids)) {
		return nil, common.NewValidation("some collections do not belong to the user")
	}
	return ids, nil
}

// replaceCollectionLinks makes collectionIDs the exact link set of the owner row.
func replaceCollectionLinks(tx *gorm.DB, joinTable, ownerColumn string, ownerID uint, collectionIDs []uint) error {
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", joinTable, ownerColumn), ownerID).Error; err != nil {
		return err
	}
	if len(collectionIDs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(collectionIDs))
	for _, id := range collectionIDs {
		rows = append(rows, map[string]any{ownerColumn: ownerID, "collection_id": id})
	}
	return tx.Table(joinTable).Create(rows).Error
}

// touchCollections stamps last_used on every collection linked to the owner
// row. It runs in the same transaction as the owner's save, after the link set
// has been written, so it sees the final associations.
func touchCollections(tx *gorm.DB, joinTable, ownerColumn string, ownerID uint, at time.Time) error {
	linked := tx.Table(joinTable).Select("collection_id").Where(ownerColumn+" = ?", ownerID)
	return tx.Model(&models.Collection{}).Where("id IN (?)", linked).UpdateColumn("last_used", at).Error
}
