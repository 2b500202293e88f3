package model

import "time"

/*

UserFollow is a directed follow edge from one user to another.

FollowerID: the user who follows
FollowedID: the user being followed
CreatedAt: time when relation is created

The pair is the primary key, so a duplicate follow is a constraint conflict
and is treated as a no-op. Rows are removed outright on unfollow (no soft
delete) so a later re-follow can re-insert the same pair, and follower counts
are a live COUNT over this table with no stored counter to drift.

*/

type UserFollow struct {
	FollowerID string `gorm:"primaryKey"`
	FollowedID string `gorm:"primaryKey"`
	CreatedAt  time.Time
}

/*

ArtistFollow is a follow edge from a user to an artist identity. Same
semantics as UserFollow, except artists additionally carry a denormalized
FollowersCount that is incremented only when an edge is actually inserted.

*/

type ArtistFollow struct {
	UserID    string `gorm:"primaryKey"`
	ArtistID  string `gorm:"primaryKey"`
	CreatedAt time.Time
}
