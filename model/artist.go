package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

Artist is a musical identity that content can be attributed to in addition to
its owning User. For example a prompt is "by creator X, for artist Y". Artists
are created and edited by admin tooling and are read-heavy.

Id: primary key
Name: display name
Slug: unique URL-safe key, used in artist pages
Genres: set of genre strings
Verified: set by admins for authentic artist identities
SocialLinks: JSON map of platform name to URL
FollowersCount: denormalized follower counter, maintained alongside the
	artist_follows edges
MonthlyListeners: display-only listener stat fed by external ingestion

*/

type Artist struct {
	Id               string `gorm:"primaryKey"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt
	Name             string         `gorm:"not null"`
	Slug             string         `gorm:"uniqueIndex;not null"`
	Genres           pq.StringArray `gorm:"type:text[]"`
	Bio              string
	CoverUrl         string
	Verified         bool
	SocialLinks      datatypes.JSON
	FollowersCount   int64 `gorm:"not null;default:0"`
	MonthlyListeners int64 `gorm:"not null;default:0"`
}
