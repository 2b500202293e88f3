package server

import (
	"github.com/gin-gonic/gin"
	"github.com/soundforge/soundforge/server/middlewares"
)

// RegisterRoutes wires the REST surface. Public reads accept anonymous
// visitors so browsing (and anonymous view recording) works, but still go
// through the optional guard: client-supplied identity headers are stripped
// and a presented token is validated. Mutations and the library require a
// token outright. With byPassAuth the sub header is trusted as-is, which is
// what local development and the store tests use.
func RegisterRoutes(router *gin.Engine, api *API, byPassAuth bool) {
	public := router.Group("/api")
	authed := router.Group("/api")
	if !byPassAuth {
		public.Use(middlewares.OptionalJWT())
		authed.Use(middlewares.JWT())
	}

	// Identity and profiles.
	authed.POST("/me", api.ResolveMe)
	authed.PATCH("/me", api.UpdateMe)
	public.GET("/users/:handle", api.GetProfile)

	// Social graph.
	authed.POST("/follow/:userId", api.FollowUser)
	authed.DELETE("/follow/:userId", api.UnfollowUser)

	// Artists.
	public.GET("/artists/:slug", api.GetArtist)
	authed.POST("/artists", api.UpsertArtist)
	authed.POST("/artists/:id/follow", api.FollowArtist)
	authed.DELETE("/artists/:id/follow", api.UnfollowArtist)

	// Library.
	authed.GET("/library", api.Library)

	// Catalog, keyed by variant: prompt | model | workflow | pack.
	public.GET("/:variant/slug/:slug", api.GetBySlug)
	public.GET("/:variant/featured", api.Featured)
	public.GET("/:variant/popular", api.Popular)
	public.GET("/:variant/category/:tag", api.ByCategory)
	public.GET("/:variant/search", api.Search)
	authed.POST("/:variant", api.CreateItem)
	authed.PATCH("/:variant/:id", api.UpdateItem)
	authed.DELETE("/:variant/:id", api.DeleteItem)
	authed.POST("/:variant/:id/download", api.Download)
	authed.POST("/:variant/:id/like", api.Like)
	authed.POST("/:variant/:id/feature", api.SetFeatured)
}
