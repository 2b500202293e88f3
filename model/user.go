package model

import (
	"time"

	"gorm.io/gorm"
)

/*

User is the internal identity record backing every profile and ownership
relation in the catalog.

Id: primary key
CreatedAt: time when entity is created
UpdatedAt: time when entity is last updated
DeletedAt: soft-delete marker, users are never hard-deleted so that authored
	content and follow edges never dangle

ExternalRef: the opaque subject issued by the identity provider, unique. This
	is the only link between our user row and the external identity; we never
	store credentials.
Handle: unique display handle, used in profile URLs
Role: viewer | creator | admin. New users start as viewer and are promoted to
	creator on their first publish.
Bio: profile text in plain text
AvatarUrl: avatar image reference

*/

type UserRole string

const (
	RoleViewer  UserRole = "viewer"
	RoleCreator UserRole = "creator"
	RoleAdmin   UserRole = "admin"
)

var AllUserRoles = []UserRole{
	RoleViewer,
	RoleCreator,
	RoleAdmin,
}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleViewer, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

func (r UserRole) String() string {
	return string(r)
}

type User struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	ExternalRef string   `gorm:"uniqueIndex;not null"`
	Handle      string   `gorm:"uniqueIndex;not null"`
	Role        UserRole `gorm:"not null;default:'viewer'"`
	Bio         string
	AvatarUrl   string
}
