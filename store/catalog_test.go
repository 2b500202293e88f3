package store_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"github.com/soundforge/soundforge/store"
	"github.com/soundforge/soundforge/utils"
	"github.com/stretchr/testify/require"
)

func TestPublishThenGetBySlug(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Beat Smith")
	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Evolving Ambient Pad", []string{"Ambient", "music"})

	item, err := catalog.GetBySlug(model.VariantPrompt, prompt.Slug)
	require.NoError(t, err)
	core := item.Core()
	require.Equal(t, prompt.Id, core.Id)
	require.Equal(t, int64(0), core.ViewsCount)
	require.Equal(t, int64(0), core.DownloadsCount)
	require.Equal(t, int64(0), core.LikesCount)
	require.False(t, core.IsFeatured)
	// Tags come back case-normalized.
	require.ElementsMatch(t, []string{"ambient", "music"}, []string(core.Tags))

	_, err = catalog.GetBySlug(model.VariantPrompt, "no-such-slug")
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestPublishPromotesViewerToCreator(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	owner := utils.TestResolveUser(t, db, "First Timer")
	require.Equal(t, model.RoleViewer, owner.Role)

	utils.TestPublishPrompt(t, db, owner.Id, "First Drop", nil)

	var reloaded model.User
	require.NoError(t, db.Where("id = ?", owner.Id).First(&reloaded).Error)
	require.Equal(t, model.RoleCreator, reloaded.Role)
}

func TestSlugCollisionSuffixing(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	owner := utils.TestResolveUser(t, db, "Beat Smith")
	first := utils.TestPublishPrompt(t, db, owner.Id, "Lo-Fi Beats", nil)
	second := utils.TestPublishPrompt(t, db, owner.Id, "Lo-Fi Beats", nil)
	third := utils.TestPublishPrompt(t, db, owner.Id, "Lo-Fi Beats", nil)

	require.Equal(t, "lo-fi-beats", first.Slug)
	require.Equal(t, "lo-fi-beats-2", second.Slug)
	require.Equal(t, "lo-fi-beats-3", third.Slug)
}

func TestPricePaidAgreement(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Beat Smith")

	_, err := catalog.CreatePrompt(owner.Id, model.CreatePromptInput{
		Title:       "Paid But Free",
		Description: "d",
		PromptText:  "p",
		PromptType:  model.PromptTypeText,
		IsPaid:      true,
		Price:       0,
	})
	require.True(t, errors.Is(err, store.ErrInvalidArgument))

	_, err = catalog.CreatePrompt(owner.Id, model.CreatePromptInput{
		Title:       "Free But Priced",
		Description: "d",
		PromptText:  "p",
		PromptType:  model.PromptTypeText,
		IsPaid:      false,
		Price:       9.99,
	})
	require.True(t, errors.Is(err, store.ErrInvalidArgument))

	// Nothing was written by the rejected publishes.
	var count int64
	require.NoError(t, db.Model(&model.Prompt{}).Count(&count).Error)
	require.Equal(t, int64(0), count)

	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Free Pad", nil)

	// Patching only one half of the pair is rejected.
	price := 4.99
	_, err = catalog.Update(model.VariantPrompt, prompt.Id, owner.Id, model.ContentPatch{Price: &price})
	require.True(t, errors.Is(err, store.ErrInvalidArgument))

	paid := true
	item, err := catalog.Update(model.VariantPrompt, prompt.Id, owner.Id, model.ContentPatch{Price: &price, IsPaid: &paid})
	require.NoError(t, err)
	require.Equal(t, 4.99, item.Core().Price)
	require.True(t, item.Core().IsPaid)
}

func TestUpdateOwnershipAndSlugImmutability(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Beat Smith")
	stranger := utils.TestResolveUser(t, db, "Stranger")
	admin := utils.TestCreateAdmin(t, db)
	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Original Title", nil)

	title := "Hacked"
	_, err := catalog.Update(model.VariantPrompt, prompt.Id, stranger.Id, model.ContentPatch{Title: &title})
	require.True(t, errors.Is(err, store.ErrForbidden))

	ownerTitle := "Renamed By Owner"
	item, err := catalog.Update(model.VariantPrompt, prompt.Id, owner.Id, model.ContentPatch{Title: &ownerTitle})
	require.NoError(t, err)
	require.Equal(t, ownerTitle, item.Core().Title)
	// The slug minted at publish time never moves, even when the title does.
	require.Equal(t, prompt.Slug, item.Core().Slug)

	adminTitle := "Renamed By Admin"
	item, err = catalog.Update(model.VariantPrompt, prompt.Id, admin.Id, model.ContentPatch{Title: &adminTitle})
	require.NoError(t, err)
	require.Equal(t, adminTitle, item.Core().Title)
}

func TestListByOwnerSpansVariants(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Multi Maker")
	other := utils.TestResolveUser(t, db, "Other Maker")

	prompt := utils.TestPublishPrompt(t, db, owner.Id, "A Prompt", nil)
	workflow := utils.TestPublishWorkflow(t, db, owner.Id, "A Workflow", "mixing")
	aiModel, err := catalog.CreateModel(owner.Id, model.CreateModelInput{
		Title:       "A Model",
		Description: "d",
		Framework:   "pytorch",
		FileUrl:     "s3://models/a",
	})
	require.NoError(t, err)
	pack, err := catalog.CreatePack(owner.Id, model.CreatePackInput{
		Title:       "A Pack",
		Description: "d",
		PackType:    model.PackTypeBundle,
		ItemIds:     []string{prompt.Id, workflow.Id},
	})
	require.NoError(t, err)
	utils.TestPublishPrompt(t, db, other.Id, "Not Mine", nil)

	items, partial, err := catalog.ListByOwner(owner.Id)
	require.NoError(t, err)
	require.False(t, partial)
	require.Len(t, items, 4)

	gotIds := map[string]bool{}
	for i := range items {
		gotIds[items[i].Core().Id] = true
	}
	for _, id := range []string{prompt.Id, workflow.Id, aiModel.Id, pack.Id} {
		require.True(t, gotIds[id], "missing item %s", id)
	}
}

// One variant table being unavailable must not take the whole profile down:
// the remaining variants are returned with the partial flag raised.
func TestListByOwnerDegradesWhenVariantUnavailable(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Multi Maker")
	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Still Here", nil)
	workflow := utils.TestPublishWorkflow(t, db, owner.Id, "Also Here", "mixing")

	require.NoError(t, db.Migrator().DropTable("packs"))

	items, partial, err := catalog.ListByOwner(owner.Id)
	require.NoError(t, err)
	require.True(t, partial)
	require.Len(t, items, 2)

	gotIds := map[string]bool{}
	for i := range items {
		gotIds[items[i].Core().Id] = true
	}
	require.True(t, gotIds[prompt.Id])
	require.True(t, gotIds[workflow.Id])
}

// Concurrent publishes of one title must all land, each on its own slug. The
// probe race loser retries the transaction instead of surfacing a failure.
func TestConcurrentPublishSameTitle(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Racer")

	const publishers = 4
	var wg sync.WaitGroup
	slugs := make([]string, publishers)
	errs := make([]error, publishers)
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prompt, err := catalog.CreatePrompt(owner.Id, model.CreatePromptInput{
				Title:       "Same Title",
				Description: "d",
				PromptText:  "p",
				PromptType:  model.PromptTypeText,
			})
			if err != nil {
				errs[i] = err
				return
			}
			slugs[i] = prompt.Slug
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < publishers; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[slugs[i]], "slug %s minted twice", slugs[i])
		seen[slugs[i]] = true
	}
}

func TestPackRequiresExistingMembers(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Packer")
	_, err := catalog.CreatePack(owner.Id, model.CreatePackInput{
		Title:       "Ghost Pack",
		Description: "d",
		PackType:    model.PackTypeBundle,
		ItemIds:     []string{"no-such-item"},
	})
	require.True(t, errors.Is(err, store.ErrNotFound))
}

// N concurrent viewers must land N increments; the addition happens inside
// the database, so no update can be lost.
func TestIncrementCounterConcurrent(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Beat Smith")
	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Hot Item", nil)

	const viewers = 32
	var wg sync.WaitGroup
	errs := make([]error, viewers)
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = catalog.IncrementCounter(model.VariantPrompt, prompt.Id, model.CounterViews, 1)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, fmt.Sprintf("increment %d failed", i))
	}

	item, err := catalog.GetById(model.VariantPrompt, prompt.Id)
	require.NoError(t, err)
	require.Equal(t, int64(viewers), item.Core().ViewsCount)
}

func TestIncrementCounterValidation(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Beat Smith")
	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Some Item", nil)

	err := catalog.IncrementCounter(model.VariantPrompt, "missing", model.CounterViews, 1)
	require.True(t, errors.Is(err, store.ErrNotFound))

	err = catalog.IncrementCounter(model.VariantPrompt, prompt.Id, model.CounterViews, 0)
	require.True(t, errors.Is(err, store.ErrInvalidArgument))

	err = catalog.IncrementCounter(model.VariantPrompt, prompt.Id, model.CounterViews, -1)
	require.True(t, errors.Is(err, store.ErrInvalidArgument))

	err = catalog.IncrementCounter(model.VariantPrompt, prompt.Id, model.CounterKind("plays"), 1)
	require.True(t, errors.Is(err, store.ErrInvalidArgument))
}

func TestSoftDeleteHidesItem(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	catalog := store.NewCatalogStore(db)

	owner := utils.TestResolveUser(t, db, "Beat Smith")
	prompt := utils.TestPublishPrompt(t, db, owner.Id, "Short Lived", nil)

	require.NoError(t, catalog.SoftDelete(model.VariantPrompt, prompt.Id, owner.Id))

	_, err := catalog.GetBySlug(model.VariantPrompt, prompt.Slug)
	require.True(t, errors.Is(err, store.ErrNotFound))

	// The row survives underneath so ledger rows never dangle.
	var count int64
	require.NoError(t, db.Unscoped().Model(&model.Prompt{}).Where("id = ?", prompt.Id).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// Counters refuse to move on removed items.
	err = catalog.IncrementCounter(model.VariantPrompt, prompt.Id, model.CounterViews, 1)
	require.True(t, errors.Is(err, store.ErrNotFound))
}
