package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"gorm.io/gorm"
)

// EngagementLedger appends view/download/like events and drives the
// denormalized counters on the catalog rows. Each record call appends exactly
// one event and performs exactly one atomic counter increment, in one
// transaction so the pair can never half-apply.
//
// Recording is deliberately NOT deduplicated by (subject, item): repeat views
// and downloads by the same user all count. The counters measure popularity,
// not reach. Likes follow the same policy.
type EngagementLedger struct {
	DB      *gorm.DB
	Catalog *CatalogStore
}

func NewEngagementLedger(db *gorm.DB, catalog *CatalogStore) *EngagementLedger {
	return &EngagementLedger{DB: db, Catalog: catalog}
}

// RecordView records a detail-page view. Anonymous subjects are accepted;
// pass nil for a logged-out viewer.
func (l *EngagementLedger) RecordView(userID *string, variant model.ContentVariant, itemID string) error {
	return l.record(userID, variant, itemID, model.EngagementView)
}

// RecordDownload records a download. A resolved subject is required because
// the download doubles as the library ownership record.
func (l *EngagementLedger) RecordDownload(userID string, variant model.ContentVariant, itemID string) error {
	if userID == "" {
		return errors.Wrap(ErrInvalidArgument, "downloads require an identified user")
	}
	return l.record(&userID, variant, itemID, model.EngagementDownload)
}

// RecordLike records a like. Same subject requirement as downloads.
func (l *EngagementLedger) RecordLike(userID string, variant model.ContentVariant, itemID string) error {
	if userID == "" {
		return errors.Wrap(ErrInvalidArgument, "likes require an identified user")
	}
	return l.record(&userID, variant, itemID, model.EngagementLike)
}

func (l *EngagementLedger) record(userID *string, variant model.ContentVariant, itemID string, kind model.EngagementKind) error {
	if !variant.IsValid() {
		return errors.Wrapf(ErrInvalidArgument, "unknown content variant %q", variant)
	}
	if userID != nil {
		var count int64
		if err := l.DB.Model(&model.User{}).Where("id = ?", *userID).Count(&count).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		if count == 0 {
			return errors.Wrapf(ErrNotFound, "no user with id %s", *userID)
		}
	}
	return l.DB.Transaction(func(tx *gorm.DB) error {
		// The increment doubles as the existence check: zero rows affected
		// means the item is unknown or soft-deleted.
		if err := l.Catalog.WithTx(tx).IncrementCounter(variant, itemID, kind.Counter(), 1); err != nil {
			return err
		}
		event := model.EngagementEvent{
			Id:          uuid.New().String(),
			CreatedAt:   time.Now(),
			UserID:      userID,
			ItemID:      itemID,
			ItemVariant: variant,
			Kind:        kind,
		}
		if err := tx.Create(&event).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil
	})
}

// CountEvents returns the number of ledger rows for an item and kind. Used
// by moderation tooling and tests; listings read the denormalized counters.
func (l *EngagementLedger) CountEvents(itemID string, kind model.EngagementKind) (int64, error) {
	var count int64
	res := l.DB.Model(&model.EngagementEvent{}).
		Where("item_id = ? AND kind = ?", itemID, kind).
		Count(&count)
	if res.Error != nil {
		return 0, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return count, nil
}

// ListLibrary returns the distinct items the user has downloaded, most
// recently downloaded first. A download means "this user now owns this item",
// so the library is derived straight from the ledger.
func (l *EngagementLedger) ListLibrary(userID string) ([]model.ContentItem, error) {
	if userID == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "library requires an identified user")
	}

	type libraryRow struct {
		ItemID      string
		ItemVariant model.ContentVariant
	}
	var rows []libraryRow
	res := l.DB.Model(&model.EngagementEvent{}).
		Select("item_id, item_variant, MAX(created_at) AS last_downloaded").
		Where("user_id = ? AND kind = ?", userID, model.EngagementDownload).
		Group("item_id, item_variant").
		Order("last_downloaded DESC").
		Scan(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}

	items := []model.ContentItem{}
	for _, row := range rows {
		item, err := l.Catalog.GetById(row.ItemVariant, row.ItemID)
		if errors.Is(err, ErrNotFound) {
			// Item was soft-removed after the download; the license stands
			// but there is nothing to show.
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
