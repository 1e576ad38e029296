package store

import (
	"fmt"

	"gorm.io/gorm"
)

// OnDelete is what happens to dependent rows when their parent row is deleted.
type OnDelete int

const (
	Cascade OnDelete = iota
	SetNull
)

// Relation describes one foreign key: Child.Column references Parent.id.
type Relation struct {
	Parent string
	Child  string
	Column string
	Rule   OnDelete
}

// Relations is the delete policy of the schema. Rows are only ever removed
// through deleteRow, which walks this table; the database itself carries no
// foreign key constraints.
var Relations = []Relation{
	{Parent: "users", Child: "social_links", Column: "user_id", Rule: Cascade},
	{Parent: "users", Child: "collections", Column: "user_id", Rule: Cascade},
	{Parent: "users", Child: "chapters", Column: "user_id", Rule: Cascade},
	{Parent: "users", Child: "entries", Column: "user_id", Rule: Cascade},
	{Parent: "users", Child: "moods", Column: "user_id", Rule: SetNull},

	{Parent: "collections", Child: "entry_collections", Column: "collection_id", Rule: Cascade},
	{Parent: "collections", Child: "chapter_collections", Column: "collection_id", Rule: Cascade},

	{Parent: "chapters", Child: "chapter_collections", Column: "chapter_id", Rule: Cascade},
	{Parent: "chapters", Child: "entries", Column: "chapter_id", Rule: SetNull},

	{Parent: "entries", Child: "entry_collections", Column: "entry_id", Rule: Cascade},

	{Parent: "moods", Child: "entries", Column: "mood_id", Rule: SetNull},
}

// joinTables have no id column of their own.
var joinTables = map[string]bool{
	"entry_collections":   true,
	"chapter_collections": true,
}

func deleteRow(tx *gorm.DB, table string, id uint) error {
	if err := applyDeletePolicy(tx, table, []uint{id}); err != nil {
		return err
	}
	return tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id).Error
}

func applyDeletePolicy(tx *gorm.DB, table string, ids []uint) error {
	for _, rel := range Relations {
		if rel.Parent != table {
			continue
		}

		switch rel.Rule {
		case SetNull:
			stmt := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s IN ?", rel.Child, rel.Column, rel.Column)
			if err := tx.Exec(stmt, ids).Error; err != nil {
				return err
			}

		case Cascade:
			if !joinTables[rel.Child] {
				var childIDs []uint
				if err := tx.Table(rel.Child).Where(rel.Column+" IN ?", ids).Pluck("id", &childIDs).Error; err != nil {
					return err
				}
				if len(childIDs) > 0 {
					if err := applyDeletePolicy(tx, rel.Child, childIDs); err != nil {
						return err
					}
				}
			}
			stmt := fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", rel.Child, rel.Column)
			if err := tx.Exec(stmt, ids).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
