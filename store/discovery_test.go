package store_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soundforge/soundforge/model"
	"github.com/soundforge/soundforge/store"
	"github.com/soundforge/soundforge/utils"
	"github.com/stretchr/testify/require"
)

func slugsOf(items []model.ContentItem) []string {
	slugs := make([]string, 0, len(items))
	for i := range items {
		slugs = append(slugs, items[i].Core().Slug)
	}
	return slugs
}

func TestFeaturedListsCuratedItemsOnly(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)
	discovery := store.NewDiscovery(db)

	owner := utils.TestResolveUser(t, db, "Creator")
	admin := utils.TestCreateAdmin(t, db)

	a := utils.TestPublishPrompt(t, db, owner.Id, "Alpha", nil)
	b := utils.TestPublishPrompt(t, db, owner.Id, "Bravo", nil)
	utils.TestPublishPrompt(t, db, owner.Id, "Charlie", nil)

	require.NoError(t, catalog.SetFeatured(model.VariantPrompt, a.Id, admin.Id, true))
	require.NoError(t, catalog.SetFeatured(model.VariantPrompt, b.Id, admin.Id, true))

	featured, err := discovery.Featured(model.VariantPrompt, 10)
	require.NoError(t, err)
	// Most recently curated first: b was featured after a.
	require.Equal(t, []string{"bravo", "alpha"}, slugsOf(featured))

	one, err := discovery.Featured(model.VariantPrompt, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
}

func TestFeaturedIsAdminOnly(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Creator")
	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Self Promo", nil)

	err := catalog.SetFeatured(model.VariantPrompt, prompt.Id, owner.Id, true)
	require.Error(t, err)
}

func TestPopularOrdering(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)
	ledger := store.NewEngagementLedger(db, catalog)
	discovery := store.NewDiscovery(db)

	owner := utils.TestResolveUser(t, db, "Creator")
	fan := utils.TestResolveUser(t, db, "Fan")

	hot := utils.TestPublishPrompt(t, db, owner.Id, "Hot", nil)
	warm := utils.TestPublishPrompt(t, db, owner.Id, "Warm", nil)
	cold := utils.TestPublishPrompt(t, db, owner.Id, "Cold", nil)

	// hot: 2 downloads. warm: 1 download, 2 views. cold: 1 download, 1 view.
	require.NoError(t, ledger.RecordDownload(fan.Id, model.VariantPrompt, hot.Id))
	require.NoError(t, ledger.RecordDownload(fan.Id, model.VariantPrompt, hot.Id))
	require.NoError(t, ledger.RecordDownload(fan.Id, model.VariantPrompt, warm.Id))
	require.NoError(t, ledger.RecordView(nil, model.VariantPrompt, warm.Id))
	require.NoError(t, ledger.RecordView(nil, model.VariantPrompt, warm.Id))
	require.NoError(t, ledger.RecordDownload(fan.Id, model.VariantPrompt, cold.Id))
	require.NoError(t, ledger.RecordView(nil, model.VariantPrompt, cold.Id))

	popular, err := discovery.Popular(model.VariantPrompt, 10)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"hot", "warm", "cold"}, slugsOf(popular)); diff != "" {
		t.Fatalf("unexpected popular order (-want +got):\n%s", diff)
	}
}

// An oversized limit is clamped to the cap, not reset to the default page
// size.
func TestPopularLimitClampedNotReset(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	discovery := store.NewDiscovery(db)

	owner := utils.TestResolveUser(t, db, "Prolific")
	for i := 0; i < 25; i++ {
		utils.TestPublishPrompt(t, db, owner.Id, fmt.Sprintf("Track %02d", i), nil)
	}

	items, err := discovery.Popular(model.VariantPrompt, 150)
	require.NoError(t, err)
	require.Len(t, items, 25)
}

func TestByCategoryIsExactTokenAndCaseInsensitive(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	discovery := store.NewDiscovery(db)

	owner := utils.TestResolveUser(t, db, "Creator")
	tagged := utils.TestPublishPrompt(t, db, owner.Id, "Tagged", []string{"Music", "ambient"})
	// "musician" must not match the "music" category: exact token, not substring.
	utils.TestPublishPrompt(t, db, owner.Id, "Near Miss", []string{"musician"})

	items, err := discovery.ByCategory(model.VariantPrompt, "MUSIC")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, tagged.Id, items[0].Core().Id)

	// Unknown tag is an empty result, not an error.
	none, err := discovery.ByCategory(model.VariantPrompt, "jazz")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSearchText(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)
	discovery := store.NewDiscovery(db)

	owner := utils.TestResolveUser(t, db, "Creator")
	utils.TestPublishPrompt(t, db, owner.Id, "Midnight Drive", nil)
	utils.TestPublishPrompt(t, db, owner.Id, "Sunrise Set", []string{"driving-beats"})
	_, err := catalog.CreatePrompt(owner.Id, model.CreatePromptInput{
		Title:       "Untitled",
		Description: "a slow drive through fog",
		PromptText:  "p",
		PromptType:  model.PromptTypeMusic,
	})
	require.NoError(t, err)

	// Substring match across title, description and tags, case-insensitive.
	items, err := discovery.SearchText(model.VariantPrompt, "DRIV")
	require.NoError(t, err)
	require.Len(t, items, 3)

	items, err = discovery.SearchText(model.VariantPrompt, "midnight")
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = discovery.SearchText(model.VariantPrompt, "no such thing")
	require.NoError(t, err)
	require.Empty(t, items)

	// Empty query falls back to the unfiltered most-recent-first list.
	items, err = discovery.SearchText(model.VariantPrompt, "  ")
	require.NoError(t, err)
	require.Len(t, items, 3)
}
