package store

import (
	"time"

	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SocialGraph maintains directed follow edges between users, and between
// users and artist identities. Follow and unfollow are idempotent by design
// so double-clicks and client retries are harmless, and follower counts for
// users are always a live COUNT over the edges - there is no stored counter
// to drift.
type SocialGraph struct {
	DB *gorm.DB
}

func NewSocialGraph(db *gorm.DB) *SocialGraph {
	return &SocialGraph{DB: db}
}

func (g *SocialGraph) requireUser(id string) error {
	var count int64
	if err := g.DB.Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	if count == 0 {
		return errors.Wrapf(ErrNotFound, "no user with id %s", id)
	}
	return nil
}

// Follow inserts a follow edge. Following yourself is rejected; following a
// user you already follow is a no-op, not an error.
func (g *SocialGraph) Follow(followerID string, followedID string) error {
	if followerID == followedID {
		return errors.Wrap(ErrInvalidArgument, "cannot follow yourself")
	}
	if err := g.requireUser(followerID); err != nil {
		return err
	}
	if err := g.requireUser(followedID); err != nil {
		return err
	}
	edge := model.UserFollow{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now(),
	}
	// The composite primary key makes the duplicate insert a conflict;
	// DoNothing turns it into the idempotent no-op.
	res := g.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		return errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return nil
}

// Unfollow removes a follow edge. Removing an absent edge is a no-op.
func (g *SocialGraph) Unfollow(followerID string, followedID string) error {
	res := g.DB.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&model.UserFollow{})
	if res.Error != nil {
		return errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return nil
}

// IsFollowing reports whether a follows b.
func (g *SocialGraph) IsFollowing(followerID string, followedID string) (bool, error) {
	var count int64
	res := g.DB.Model(&model.UserFollow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count)
	if res.Error != nil {
		return false, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return count > 0, nil
}

// FollowerCount is a live count of edges pointing at the user.
func (g *SocialGraph) FollowerCount(userID string) (int64, error) {
	var count int64
	res := g.DB.Model(&model.UserFollow{}).Where("followed_id = ?", userID).Count(&count)
	if res.Error != nil {
		return 0, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return count, nil
}

// FollowingCount is a live count of edges leaving the user.
func (g *SocialGraph) FollowingCount(userID string) (int64, error) {
	var count int64
	res := g.DB.Model(&model.UserFollow{}).Where("follower_id = ?", userID).Count(&count)
	if res.Error != nil {
		return 0, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return count, nil
}

// FollowArtist follows an artist identity. Artists carry a denormalized
// followers_count for their read-heavy pages; it is bumped atomically and
// only when the edge was actually inserted, so retries stay idempotent.
func (g *SocialGraph) FollowArtist(userID string, artistID string) error {
	if err := g.requireUser(userID); err != nil {
		return err
	}
	var count int64
	if err := g.DB.Model(&model.Artist{}).Where("id = ?", artistID).Count(&count).Error; err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	if count == 0 {
		return errors.Wrapf(ErrNotFound, "no artist with id %s", artistID)
	}

	return g.DB.Transaction(func(tx *gorm.DB) error {
		edge := model.ArtistFollow{
			UserID:    userID,
			ArtistID:  artistID,
			CreatedAt: time.Now(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
		if res.Error != nil {
			return errors.Wrap(ErrUnavailable, res.Error.Error())
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&model.Artist{}).Where("id = ?", artistID).
			UpdateColumn("followers_count", gorm.Expr("followers_count + 1")).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil
	})
}

// UnfollowArtist removes the edge and decrements the artist counter iff an
// edge was actually removed.
func (g *SocialGraph) UnfollowArtist(userID string, artistID string) error {
	return g.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND artist_id = ?", userID, artistID).
			Delete(&model.ArtistFollow{})
		if res.Error != nil {
			return errors.Wrap(ErrUnavailable, res.Error.Error())
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&model.Artist{}).
			Where("id = ? AND followers_count > 0", artistID).
			UpdateColumn("followers_count", gorm.Expr("followers_count - 1")).Error; err != nil {
			return errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil
	})
}

// IsFollowingArtist reports whether the user follows the artist.
func (g *SocialGraph) IsFollowingArtist(userID string, artistID string) (bool, error) {
	var count int64
	res := g.DB.Model(&model.ArtistFollow{}).
		Where("user_id = ? AND artist_id = ?", userID, artistID).
		Count(&count)
	if res.Error != nil {
		return false, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return count > 0, nil
}
