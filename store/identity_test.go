package store_test

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"github.com/soundforge/soundforge/store"
	"github.com/soundforge/soundforge/utils"
	"github.com/stretchr/testify/require"
)

func TestResolveCreatesUserOnFirstSight(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bridge := store.NewIdentityBridge(db)

	user, err := bridge.Resolve("ext-subject-1", store.ProfileHints{DisplayName: "DJ Nova", AvatarUrl: "https://cdn.example/nova.png"})
	require.NoError(t, err)
	require.NotEmpty(t, user.Id)
	require.Equal(t, "dj-nova", user.Handle)
	require.Equal(t, model.RoleViewer, user.Role)
	require.Equal(t, "https://cdn.example/nova.png", user.AvatarUrl)

	// Second resolve for the same subject is a lookup, not a new row.
	again, err := bridge.Resolve("ext-subject-1", store.ProfileHints{DisplayName: "Someone Else"})
	require.NoError(t, err)
	require.Equal(t, user.Id, again.Id)
	require.Equal(t, "dj-nova", again.Handle)

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestResolveSuffixesCollidingHandles(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bridge := store.NewIdentityBridge(db)

	first, err := bridge.Resolve("ext-a", store.ProfileHints{DisplayName: "DJ Nova"})
	require.NoError(t, err)
	second, err := bridge.Resolve("ext-b", store.ProfileHints{DisplayName: "DJ Nova"})
	require.NoError(t, err)

	require.Equal(t, "dj-nova", first.Handle)
	require.Equal(t, "dj-nova-2", second.Handle)
}

func TestResolveEmptySubject(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bridge := store.NewIdentityBridge(db)

	_, err := bridge.Resolve("", store.ProfileHints{})
	require.True(t, errors.Is(err, store.ErrInvalidArgument))
}

// Concurrent first-resolves for one subject must converge on a single row;
// the unique constraint on external_ref decides the race and losers re-read.
func TestResolveConcurrentFirstSight(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bridge := store.NewIdentityBridge(db)

	const racers = 8
	var wg sync.WaitGroup
	ids := make([]string, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := bridge.Resolve("ext-raced", store.ProfileHints{DisplayName: "Race Case"})
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = user.Id
		}(i)
	}
	wg.Wait()

	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, db.Model(&model.User{}).Where("external_ref = ?", "ext-raced").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpdateProfile(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bridge := store.NewIdentityBridge(db)

	owner := utils.TestResolveUser(t, db, "Profile Owner")
	stranger := utils.TestResolveUser(t, db, "Stranger")
	admin := utils.TestCreateAdmin(t, db)

	bio := "ambient producer"
	updated, err := bridge.UpdateProfile(owner.Id, owner.Id, model.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	require.Equal(t, bio, updated.Bio)
	// Untouched fields survive a partial patch.
	require.Equal(t, owner.Handle, updated.Handle)

	_, err = bridge.UpdateProfile(owner.Id, stranger.Id, model.ProfilePatch{Bio: &bio})
	require.True(t, errors.Is(err, store.ErrForbidden))

	adminBio := "edited by admin"
	updated, err = bridge.UpdateProfile(owner.Id, admin.Id, model.ProfilePatch{Bio: &adminBio})
	require.NoError(t, err)
	require.Equal(t, adminBio, updated.Bio)

	badHandle := "Not A Handle"
	_, err = bridge.UpdateProfile(owner.Id, owner.Id, model.ProfilePatch{Handle: &badHandle})
	require.True(t, errors.Is(err, store.ErrInvalidArgument))

	// Taking another user's handle is a conflict, not an outage.
	taken := stranger.Handle
	_, err = bridge.UpdateProfile(owner.Id, owner.Id, model.ProfilePatch{Handle: &taken})
	require.True(t, errors.Is(err, store.ErrConflict))
}
