package model

import "time"

/*

EngagementEvent is an append-only record of a single view, download or like
against a catalog item. Events are never updated or deleted; the denormalized
counters on ContentCore are incremented atomically alongside each append.

UserID: the acting user, nil for anonymous views
ItemID:
ItemVariant: which variant table the item lives in
Kind: view | download | like

A download event doubles as the ownership record for the user's library: the
set of items a user has downloaded is derived from these rows.

Repeat events by the same user are recorded and counted every time. This is a
deliberate popularity-over-reach choice, covered by tests, and likes follow
the same non-deduplicated policy as views.

*/

type EngagementKind string

const (
	EngagementView     EngagementKind = "view"
	EngagementDownload EngagementKind = "download"
	EngagementLike     EngagementKind = "like"
)

var AllEngagementKinds = []EngagementKind{
	EngagementView,
	EngagementDownload,
	EngagementLike,
}

func (k EngagementKind) IsValid() bool {
	switch k {
	case EngagementView, EngagementDownload, EngagementLike:
		return true
	}
	return false
}

// Counter maps the event kind to the ContentCore counter it drives.
func (k EngagementKind) Counter() CounterKind {
	switch k {
	case EngagementView:
		return CounterViews
	case EngagementDownload:
		return CounterDownloads
	case EngagementLike:
		return CounterLikes
	}
	return ""
}

type EngagementEvent struct {
	Id          string         `gorm:"primaryKey"`
	CreatedAt   time.Time      `gorm:"index"`
	UserID      *string        `gorm:"index"`
	ItemID      string         `gorm:"index;not null"`
	ItemVariant ContentVariant `gorm:"not null"`
	Kind        EngagementKind `gorm:"not null"`
}
