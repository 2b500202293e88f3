package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// maxSlugAttempts bounds the numeric-suffix probing before falling back to a
// random suffix. A collision past this point is pathological.
const maxSlugAttempts = 50

// Slugify turns a title into a lowercase URL-safe slug: "Lo-Fi Beats 101"
// becomes "lo-fi-beats-101". Returns "" for titles with no usable characters.
func Slugify(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// uniqueSlug generates a slug for the given table, suffixing "-2", "-3", ...
// on collision. As a last resort a short random suffix is appended, so the
// caller never observes a Conflict for a reasonable title.
func uniqueSlug(tx *gorm.DB, table string, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "item"
	}
	return uniqueKey(tx, table, "slug", base)
}

// uniqueKey probes a unique column for a free value derived from base. Also
// used for user handle generation, which uniques the same way as slugs.
func uniqueKey(tx *gorm.DB, table string, column string, base string) (string, error) {
	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts+1; attempt++ {
		var count int64
		// Unscoped: a soft-deleted row still holds its key.
		if err := tx.Table(table).Unscoped().Where(column+" = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return fmt.Sprintf("%s-%s", base, uuid.New().String()[:8]), nil
}
