package store

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Discovery derives the featured/popular/category/search result sets as pure
// read compositions over the catalog tables. It holds no state of its own so
// it can never drift from the store.
type Discovery struct {
	DB *gorm.DB
}

func NewDiscovery(db *gorm.DB) *Discovery {
	return &Discovery{DB: db}
}

// find runs one scoped query against the variant's table and wraps the rows
// into the uniform ContentItem sequence.
func (d *Discovery) find(variant model.ContentVariant, scope func(*gorm.DB) *gorm.DB) ([]model.ContentItem, error) {
	switch variant {
	case model.VariantPrompt:
		var rows []*model.Prompt
		if err := scope(d.DB.Model(&model.Prompt{}).Preload("Artist")).Find(&rows).Error; err != nil {
			return nil, errors.Wrap(ErrUnavailable, err.Error())
		}
		return model.PromptItems(rows), nil
	case model.VariantModel:
		var rows []*model.AIModel
		if err := scope(d.DB.Model(&model.AIModel{})).Find(&rows).Error; err != nil {
			return nil, errors.Wrap(ErrUnavailable, err.Error())
		}
		return model.ModelItems(rows), nil
	case model.VariantWorkflow:
		var rows []*model.Workflow
		if err := scope(d.DB.Model(&model.Workflow{})).Find(&rows).Error; err != nil {
			return nil, errors.Wrap(ErrUnavailable, err.Error())
		}
		return model.WorkflowItems(rows), nil
	case model.VariantPack:
		var rows []*model.Pack
		if err := scope(d.DB.Model(&model.Pack{})).Find(&rows).Error; err != nil {
			return nil, errors.Wrap(ErrUnavailable, err.Error())
		}
		return model.PackItems(rows), nil
	}
	return nil, errors.Wrapf(ErrInvalidArgument, "unknown content variant %q", variant)
}

// capLimit defaults an unset limit and clamps an oversized one. A caller
// asking for more than the cap gets the cap, not the default.
func capLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// Featured lists curated items, most recently updated first.
func (d *Discovery) Featured(variant model.ContentVariant, limit int) ([]model.ContentItem, error) {
	return d.find(variant, func(q *gorm.DB) *gorm.DB {
		return q.Where("is_featured = ?", true).
			Order("updated_at DESC").
			Limit(capLimit(limit))
	})
}

// Popular orders by downloads, then views, then id so the ordering is fully
// deterministic even for fresh items with identical counters.
func (d *Discovery) Popular(variant model.ContentVariant, limit int) ([]model.ContentItem, error) {
	return d.find(variant, func(q *gorm.DB) *gorm.DB {
		return q.Order("downloads_count DESC, views_count DESC, id ASC").
			Limit(capLimit(limit))
	})
}

// ByCategory lists the items whose tag set contains the given tag, newest
// first. Matching is case-normalized and exact-token; an unknown tag yields
// an empty list, not an error.
func (d *Discovery) ByCategory(variant model.ContentVariant, tag string) ([]model.ContentItem, error) {
	normalized := NormalizeTags([]string{tag})
	if len(normalized) == 0 {
		return []model.ContentItem{}, nil
	}
	return d.find(variant, func(q *gorm.DB) *gorm.DB {
		return q.Where("tags && ?", pq.Array(normalized)).Order("created_at DESC")
	})
}

// SearchText is a case-insensitive substring match over title, description
// and tags. An empty query returns the unfiltered most-recent-first list.
func (d *Discovery) SearchText(variant model.ContentVariant, query string) ([]model.ContentItem, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return d.find(variant, func(s *gorm.DB) *gorm.DB {
			return s.Order("created_at DESC").Limit(100)
		})
	}
	pattern := "%" + strings.ToLower(q) + "%"
	return d.find(variant, func(s *gorm.DB) *gorm.DB {
		return s.Where(
			"title ILIKE ? OR description ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE ?)",
			pattern, pattern, pattern,
		).Order("created_at DESC")
	})
}
