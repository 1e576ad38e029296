package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"pine/common"
)

var accentMap = map[rune]rune{
	'á': 'a', 'à': 'a', 'ã': 'a', 'â': 'a', 'ä': 'a', 'å': 'a', 'ā': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e', 'ē': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i', 'ī': 'i',
	'ó': 'o', 'ò': 'o', 'õ': 'o', 'ô': 'o', 'ö': 'o', 'ø': 'o', 'ō': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u', 'ū': 'u',
	'ç': 'c', 'ć': 'c', 'č': 'c',
	'ñ': 'n', 'ń': 'n',
	'ý': 'y', 'ÿ': 'y',
	'ß': 's',
}

// Slugify lowercases s, strips accents and turns every run of characters
// outside [a-z0-9] into a single hyphen. Leading and trailing hyphens are dropped.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(s) {
		if replacement, ok := accentMap[r]; ok {
			r = replacement
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}

// slugFor derives a slug that fits in maxLen bytes. Empty results are nil so
// rows without a usable name stay out of the unique index.
func slugFor(source string, maxLen int) *string {
	slug := Slugify(source)
	if len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	if slug == "" {
		return nil
	}
	return &slug
}

// ensureSlugFree fails with a validation error when another row of model
// already uses slug. No disambiguation suffix is ever appended.
func ensureSlugFree(tx *gorm.DB, model any, label string, slug *string, excludeID uint) error {
	if slug == nil {
		return nil
	}
	var count int64
	q := tx.Model(model).Where("slug = ?", *slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return storageError(err)
	}
	if count > 0 {
		return common.NewValidation(fmt.Sprintf("%s with this slug already exists.", label))
	}
	return nil
}

// uniqueViolation turns a duplicate key error raised by the database into the
// same validation error the pre-check produces.
func uniqueViolation(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return common.NewValidation(message)
	}
	return storageError(err)
}

// SlugValue returns the slug or "" for rows that have none.
func SlugValue(slug *string) string {
	if slug == nil {
		return ""
	}
	return *slug
}
