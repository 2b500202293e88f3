package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ArtistStore is the admin-facing CRUD surface for artist identities. Reads
// are open; writes require the admin role.
type ArtistStore struct {
	DB *gorm.DB
}

func NewArtistStore(db *gorm.DB) *ArtistStore {
	return &ArtistStore{DB: db}
}

func (s *ArtistStore) requireAdmin(callerID string) error {
	var caller model.User
	res := s.DB.Where("id = ?", callerID).First(&caller)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, "no user with id %s", callerID)
	}
	if res.Error != nil {
		return errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	if caller.Role != model.RoleAdmin {
		return errors.Wrap(ErrForbidden, "artist management is admin only")
	}
	return nil
}

// Upsert creates a new artist, or updates an existing one when input.Id is
// set. The slug is derived from the name on create and immutable after.
func (s *ArtistStore) Upsert(callerID string, input model.UpsertArtistInput) (*model.Artist, error) {
	if err := s.requireAdmin(callerID); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "artist name is required")
	}

	links := datatypes.JSON("{}")
	if input.SocialLinks != nil {
		raw, err := json.Marshal(input.SocialLinks)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidArgument, err.Error())
		}
		links = datatypes.JSON(raw)
	}

	if input.Id != nil {
		var artist model.Artist
		res := s.DB.Where("id = ?", *input.Id).First(&artist)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "no artist with id %s", *input.Id)
		}
		if res.Error != nil {
			return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
		}
		artist.Name = input.Name
		artist.Genres = pq.StringArray(NormalizeTags(input.Genres))
		artist.Bio = input.Bio
		artist.CoverUrl = input.CoverUrl
		artist.Verified = input.Verified
		artist.SocialLinks = links
		artist.MonthlyListeners = input.MonthlyListeners
		if err := s.DB.Save(&artist).Error; err != nil {
			return nil, errors.Wrap(ErrUnavailable, err.Error())
		}
		return &artist, nil
	}

	slug, err := uniqueSlug(s.DB, "artists", input.Name)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	artist := model.Artist{
		Id:               uuid.New().String(),
		CreatedAt:        time.Now(),
		Name:             input.Name,
		Slug:             slug,
		Genres:           pq.StringArray(NormalizeTags(input.Genres)),
		Bio:              input.Bio,
		CoverUrl:         input.CoverUrl,
		Verified:         input.Verified,
		SocialLinks:      links,
		MonthlyListeners: input.MonthlyListeners,
	}
	if err := s.DB.Create(&artist).Error; err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	return &artist, nil
}

// GetBySlug fetches one artist page.
func (s *ArtistStore) GetBySlug(slug string) (*model.Artist, error) {
	var artist model.Artist
	res := s.DB.Where("slug = ?", slug).First(&artist)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "no artist with slug %s", slug)
	}
	if res.Error != nil {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return &artist, nil
}

// ListPrompts returns the prompts attributed to an artist, newest first.
func (s *ArtistStore) ListPrompts(artistID string) ([]*model.Prompt, error) {
	var rows []*model.Prompt
	res := s.DB.Where("artist_id = ?", artistID).Order("created_at DESC").Find(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return rows, nil
}
