package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileHints carries the optional profile data the identity provider hands
// us on session establishment. Used only when creating a user on first sight.
type ProfileHints struct {
	DisplayName string
	AvatarUrl   string
}

// IdentityBridge maps identity-provider subjects to internal user rows,
// creating the row lazily on first sight.
type IdentityBridge struct {
	DB *gorm.DB
}

func NewIdentityBridge(db *gorm.DB) *IdentityBridge {
	return &IdentityBridge{DB: db}
}

// Resolve returns the internal user for an identity-provider subject,
// creating it on first sight with a generated unique handle and the viewer
// role. Concurrent first calls for the same subject are resolved by the
// unique index on external_ref: the insert is OnConflict DoNothing, and a
// loser simply re-reads the winner's row. Subsequent calls are plain lookups.
func (b *IdentityBridge) Resolve(externalRef string, hints ProfileHints) (*model.User, error) {
	if externalRef == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "empty external subject")
	}

	var user model.User
	res := b.DB.Where("external_ref = ?", externalRef).First(&user)
	if res.Error == nil {
		return &user, nil
	}
	if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}

	handle, err := b.generateHandle(hints.DisplayName)
	if err != nil {
		return nil, err
	}
	fresh := model.User{
		Id:          uuid.New().String(),
		CreatedAt:   time.Now(),
		ExternalRef: externalRef,
		Handle:      handle,
		Role:        model.RoleViewer,
		AvatarUrl:   hints.AvatarUrl,
	}
	createRes := b.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_ref"}},
		DoNothing: true,
	}).Create(&fresh)
	if createRes.Error != nil {
		// A handle collision between two unrelated first-resolves can still
		// surface here; retry once with a random suffix before giving up.
		fresh.Id = uuid.New().String()
		fresh.Handle = fmt.Sprintf("%s-%s", handle, uuid.New().String()[:6])
		createRes = b.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_ref"}},
			DoNothing: true,
		}).Create(&fresh)
		if createRes.Error != nil {
			return nil, errors.Wrap(ErrUnavailable, createRes.Error.Error())
		}
	}
	if createRes.RowsAffected == 1 {
		return &fresh, nil
	}

	// Lost the first-resolution race; the winner's row must exist now.
	res = b.DB.Where("external_ref = ?", externalRef).First(&user)
	if res.Error != nil {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return &user, nil
}

// GetByHandle looks up a user by the display handle used in profile URLs.
func (b *IdentityBridge) GetByHandle(handle string) (*model.User, error) {
	var user model.User
	res := b.DB.Where("handle = ?", handle).First(&user)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "no user with handle %s", handle)
	}
	if res.Error != nil {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return &user, nil
}

// GetById looks up a user by internal id.
func (b *IdentityBridge) GetById(id string) (*model.User, error) {
	var user model.User
	res := b.DB.Where("id = ?", id).First(&user)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "no user with id %s", id)
	}
	if res.Error != nil {
		return nil, errors.Wrap(ErrUnavailable, res.Error.Error())
	}
	return &user, nil
}

// UpdateProfile applies a partial profile edit. Only the user themselves or
// an admin may edit; non-nil patch fields are applied, the rest untouched.
func (b *IdentityBridge) UpdateProfile(userID string, callerID string, patch model.ProfilePatch) (*model.User, error) {
	caller, err := b.GetById(callerID)
	if err != nil {
		return nil, err
	}
	if callerID != userID && caller.Role != model.RoleAdmin {
		return nil, errors.Wrap(ErrForbidden, "profile can only be edited by its owner or an admin")
	}

	user, err := b.GetById(userID)
	if err != nil {
		return nil, err
	}
	if patch.Handle != nil && Slugify(*patch.Handle) != *patch.Handle {
		return nil, errors.Wrap(ErrInvalidArgument, "handle must be lowercase and URL-safe")
	}
	if err := copier.CopyWithOption(user, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	if err := b.DB.Save(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(ErrConflict, "handle %s is already taken", user.Handle)
		}
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	return user, nil
}

// generateHandle derives a unique handle from the provider display name,
// uniqued by numeric suffixing like content slugs.
func (b *IdentityBridge) generateHandle(displayName string) (string, error) {
	base := Slugify(displayName)
	if base == "" {
		base = "user"
	}
	return uniqueKey(b.DB.Session(&gorm.Session{}), "users", "handle", base)
}
