// Package server exposes the catalog core over REST. Handlers stay thin:
// they parse the request, call one store component and map the error kind to
// a status code. All invariants live in the store.
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/soundforge/soundforge/model"
	"github.com/soundforge/soundforge/server/middlewares"
	"github.com/soundforge/soundforge/store"
	"github.com/soundforge/soundforge/utils"
	Logger "github.com/soundforge/soundforge/utils/log"
	"gorm.io/gorm"
)

// API bundles the store components behind the HTTP surface. Every component
// shares the one gorm handle passed in from main; tests construct the same
// struct around a temp database.
type API struct {
	Identity   *store.IdentityBridge
	Catalog    *store.CatalogStore
	Social     *store.SocialGraph
	Engagement *store.EngagementLedger
	Discovery  *store.Discovery
	Artists    *store.ArtistStore
	Redis      *utils.RedisClient
}

func NewAPI(db *gorm.DB, redis *utils.RedisClient) *API {
	catalog := store.NewCatalogStore(db)
	return &API{
		Identity:   store.NewIdentityBridge(db),
		Catalog:    catalog,
		Social:     store.NewSocialGraph(db),
		Engagement: store.NewEngagementLedger(db, catalog),
		Discovery:  store.NewDiscovery(db),
		Artists:    store.NewArtistStore(db),
		Redis:      redis,
	}
}

// abortWithError maps store error kinds onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		Logger.Log.Error("request failed: ", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
	c.Abort()
}

func variantParam(c *gin.Context) (model.ContentVariant, bool) {
	variant := model.ContentVariant(c.Param("variant"))
	if !variant.IsValid() {
		abortWithError(c, errors.Wrapf(store.ErrInvalidArgument, "unknown content variant %q", c.Param("variant")))
		return "", false
	}
	return variant, true
}

func hintsFrom(c *gin.Context) store.ProfileHints {
	return store.ProfileHints{
		DisplayName: c.Request.Header.Get(middlewares.HeaderHintName),
		AvatarUrl:   c.Request.Header.Get(middlewares.HeaderHintAvatar),
	}
}

// requireSubject resolves the authenticated caller. Routes using it are
// mounted behind the JWT middleware, so a missing sub is a broken setup.
func (a *API) requireSubject(c *gin.Context) (*model.User, bool) {
	sub := c.Request.Header.Get(middlewares.HeaderSub)
	if sub == "" {
		abortWithError(c, errors.Wrap(store.ErrInvalidArgument, "missing authenticated subject"))
		return nil, false
	}
	user, err := a.Identity.Resolve(sub, hintsFrom(c))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return user, true
}

// optionalSubject resolves the caller when a token was presented, and
// returns nil for anonymous requests. Used by read surfaces that accept
// logged-out visitors, like detail-page views.
func (a *API) optionalSubject(c *gin.Context) (*model.User, error) {
	sub := c.Request.Header.Get(middlewares.HeaderSub)
	if sub == "" {
		return nil, nil
	}
	return a.Identity.Resolve(sub, hintsFrom(c))
}

func (a *API) ResolveMe(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) UpdateMe(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	var patch model.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, errors.Wrap(store.ErrInvalidArgument, err.Error()))
		return
	}
	updated, err := a.Identity.UpdateProfile(user.Id, user.Id, patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GetProfile aggregates a public profile page: the user, every item they own
// across all variants, their live follower count and the viewer's follow
// state. A partial flag tells the page when one variant store was down.
func (a *API) GetProfile(c *gin.Context) {
	user, err := a.Identity.GetByHandle(c.Param("handle"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	items, partial, err := a.Catalog.ListByOwner(user.Id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	followers, err := a.Social.FollowerCount(user.Id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	isFollowing := false
	viewer, err := a.optionalSubject(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if viewer != nil {
		isFollowing, err = a.Social.IsFollowing(viewer.Id, user.Id)
		if err != nil {
			abortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"items":         items,
		"partial":       partial,
		"followerCount": followers,
		"isFollowing":   isFollowing,
	})
}

func (a *API) CreateItem(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}

	var (
		created interface{}
		err     error
	)
	switch variant {
	case model.VariantPrompt:
		var input model.CreatePromptInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			abortWithError(c, errors.Wrap(store.ErrInvalidArgument, bindErr.Error()))
			return
		}
		created, err = a.Catalog.CreatePrompt(user.Id, input)
	case model.VariantModel:
		var input model.CreateModelInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			abortWithError(c, errors.Wrap(store.ErrInvalidArgument, bindErr.Error()))
			return
		}
		created, err = a.Catalog.CreateModel(user.Id, input)
	case model.VariantWorkflow:
		var input model.CreateWorkflowInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			abortWithError(c, errors.Wrap(store.ErrInvalidArgument, bindErr.Error()))
			return
		}
		created, err = a.Catalog.CreateWorkflow(user.Id, input)
	default:
		var input model.CreatePackInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			abortWithError(c, errors.Wrap(store.ErrInvalidArgument, bindErr.Error()))
			return
		}
		created, err = a.Catalog.CreatePack(user.Id, input)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) UpdateItem(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	var patch model.ContentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, errors.Wrap(store.ErrInvalidArgument, err.Error()))
		return
	}
	item, err := a.Catalog.Update(variant, c.Param("id"), user.Id, patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *API) DeleteItem(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	if err := a.Catalog.SoftDelete(variant, c.Param("id"), user.Id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetBySlug serves a detail page and records the view, anonymous or not.
// The returned counters include the view just recorded.
func (a *API) GetBySlug(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	item, err := a.Catalog.GetBySlug(variant, c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	viewer, err := a.optionalSubject(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var viewerID *string
	if viewer != nil {
		viewerID = &viewer.Id
	}
	if err := a.Engagement.RecordView(viewerID, variant, item.Core().Id); err != nil {
		abortWithError(c, err)
		return
	}
	item, err = a.Catalog.GetBySlug(variant, c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *API) Download(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	if err := a.Engagement.RecordDownload(user.Id, variant, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) Like(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	if err := a.Engagement.RecordLike(user.Id, variant, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) Featured(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	items, err := a.Discovery.Featured(variant, intQuery(c, "limit"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (a *API) Popular(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	items, err := a.Discovery.Popular(variant, intQuery(c, "limit"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (a *API) ByCategory(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	items, err := a.Discovery.ByCategory(variant, c.Param("tag"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (a *API) Search(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	items, err := a.Discovery.SearchText(variant, c.Query("q"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (a *API) SetFeatured(c *gin.Context) {
	variant, ok := variantParam(c)
	if !ok {
		return
	}
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	var body struct {
		Featured bool `json:"featured"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, errors.Wrap(store.ErrInvalidArgument, err.Error()))
		return
	}
	if err := a.Catalog.SetFeatured(variant, c.Param("id"), user.Id, body.Featured); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) FollowUser(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	if err := a.Social.Follow(user.Id, c.Param("userId")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) UnfollowUser(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	if err := a.Social.Unfollow(user.Id, c.Param("userId")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetArtist serves an artist page: the artist, their attributed prompts and
// the viewer's follow state.
func (a *API) GetArtist(c *gin.Context) {
	artist, err := a.Artists.GetBySlug(c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	prompts, err := a.Artists.ListPrompts(artist.Id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	isFollowing := false
	viewer, err := a.optionalSubject(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if viewer != nil {
		isFollowing, err = a.Social.IsFollowingArtist(viewer.Id, artist.Id)
		if err != nil {
			abortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"artist":      artist,
		"prompts":     prompts,
		"isFollowing": isFollowing,
	})
}

func (a *API) UpsertArtist(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	var input model.UpsertArtistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, errors.Wrap(store.ErrInvalidArgument, err.Error()))
		return
	}
	artist, err := a.Artists.Upsert(user.Id, input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (a *API) FollowArtist(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	if err := a.Social.FollowArtist(user.Id, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) UnfollowArtist(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	if err := a.Social.UnfollowArtist(user.Id, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Library lists everything the caller has downloaded, with a redis-backed
// "seen" badge per item. Redis being down degrades to all-unseen rather than
// failing the page.
func (a *API) Library(c *gin.Context) {
	user, ok := a.requireSubject(c)
	if !ok {
		return
	}
	items, err := a.Engagement.ListLibrary(user.Id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	itemIds := make([]string, 0, len(items))
	for i := range items {
		itemIds = append(itemIds, items[i].Core().Id)
	}
	seen := make([]bool, len(items))
	if a.Redis != nil && len(itemIds) > 0 {
		if status, redisErr := a.Redis.GetLibrarySeenStatus(itemIds, user.Id); redisErr == nil {
			seen = status
			if markErr := a.Redis.MarkLibraryItemsSeen(itemIds, user.Id); markErr != nil {
				Logger.Log.Warn("fail to mark library items seen: ", markErr)
			}
		} else {
			Logger.Log.Warn("library seen cache unavailable: ", redisErr)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"seen":  seen,
	})
}

func intQuery(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
