package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/soundforge/soundforge/model"
	"github.com/soundforge/soundforge/store"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Seed helpers shared by store tests. Each helper goes through the real
// component under test where one exists, and asserts the invariants every
// caller relies on.

// TestResolveUser resolves a fresh external subject into a new user row and
// validates the first-sight defaults.
func TestResolveUser(t *testing.T, db *gorm.DB, displayName string) *model.User {
	t.Helper()
	bridge := store.NewIdentityBridge(db)
	user, err := bridge.Resolve("ext-"+uuid.New().String(), store.ProfileHints{DisplayName: displayName})
	require.NoError(t, err)
	require.NotEmpty(t, user.Id)
	require.NotEmpty(t, user.Handle)
	require.Equal(t, model.RoleViewer, user.Role)
	return user
}

// TestCreateAdmin seeds an admin user directly; admin promotion itself is
// out-of-band tooling, not part of the bridge.
func TestCreateAdmin(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	admin := model.User{
		Id:          uuid.New().String(),
		CreatedAt:   time.Now(),
		ExternalRef: "ext-" + uuid.New().String(),
		Handle:      "admin-" + RandomAlphabetString(6),
		Role:        model.RoleAdmin,
	}
	require.NoError(t, db.Create(&admin).Error)
	return &admin
}

// TestPublishPrompt publishes a free prompt with the given tags and validates
// the publish-time invariants: zero counters, not featured, non-empty slug.
func TestPublishPrompt(t *testing.T, db *gorm.DB, ownerID string, title string, tags []string) *model.Prompt {
	t.Helper()
	catalog := store.NewCatalogStore(db)
	prompt, err := catalog.CreatePrompt(ownerID, model.CreatePromptInput{
		Title:       title,
		Description: "seeded by test",
		PromptText:  "an evolving ambient pad in d minor",
		PromptType:  model.PromptTypeMusic,
		Tags:        tags,
	})
	require.NoError(t, err)
	require.NotEmpty(t, prompt.Slug)
	require.Equal(t, int64(0), prompt.ViewsCount)
	require.Equal(t, int64(0), prompt.DownloadsCount)
	require.Equal(t, int64(0), prompt.LikesCount)
	require.False(t, prompt.IsFeatured)
	return prompt
}

// TestPublishWorkflow publishes a free workflow in the given category.
func TestPublishWorkflow(t *testing.T, db *gorm.DB, ownerID string, title string, category string) *model.Workflow {
	t.Helper()
	catalog := store.NewCatalogStore(db)
	workflow, err := catalog.CreateWorkflow(ownerID, model.CreateWorkflowInput{
		Title:       title,
		Description: "seeded by test",
		Category:    category,
	})
	require.NoError(t, err)
	require.NotEmpty(t, workflow.Slug)
	return workflow
}

// TestUpsertArtist seeds an artist through the admin store.
func TestUpsertArtist(t *testing.T, db *gorm.DB, adminID string, name string) *model.Artist {
	t.Helper()
	artists := store.NewArtistStore(db)
	artist, err := artists.Upsert(adminID, model.UpsertArtistInput{
		Name:   name,
		Genres: []string{"ambient", "electronic"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, artist.Slug)
	return artist
}
