// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking-api/internal/handler"
	"github.com/iliyamo/cinema-booking-api/internal/middleware"
	"github.com/iliyamo/cinema-booking-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, the profile endpoint
// under /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token; /refresh-access reuses it and
	// only issues a new access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// CatalogHandlers bundles the catalog handlers for route registration.
type CatalogHandlers struct {
	Genres   *handler.GenreHandler
	Actors   *handler.ActorHandler
	Halls    *handler.HallHandler
	Movies   *handler.MovieHandler
	Sessions *handler.SessionHandler
}

// RegisterCatalog registers the public browse endpoints and the
// admin-only mutations.  cache, when non-nil, wraps the public reads.
func RegisterCatalog(e *echo.Echo, h CatalogHandlers, jwtSecret string, cache echo.MiddlewareFunc) {
	pub := e.Group("/v1")
	if cache != nil {
		pub.Use(cache)
	}
	pub.GET("/genres", h.Genres.List)
	pub.GET("/actors", h.Actors.List)
	pub.GET("/cinema-halls", h.Halls.List)
	pub.GET("/movies", h.Movies.List)
	pub.GET("/movies/:id", h.Movies.Get)
	pub.GET("/movie-sessions", h.Sessions.List)
	pub.GET("/movie-sessions/:id", h.Sessions.Get)
	pub.GET("/movie-sessions/:id/seat", h.Sessions.SeatStatus)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/genres", h.Genres.Create)
	admin.POST("/actors", h.Actors.Create)
	admin.POST("/cinema-halls", h.Halls.Create)
	admin.POST("/movies", h.Movies.Create)
	admin.POST("/movies/:id/image", h.Movies.UploadImage)
	admin.POST("/movie-sessions", h.Sessions.Create)
	admin.PUT("/movie-sessions/:id", h.Sessions.Update)
	admin.DELETE("/movie-sessions/:id", h.Sessions.Delete)
}

// RegisterOrders registers order placement and history for any
// authenticated user.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleCustomer))
	g.POST("/orders", o.Create)
	g.GET("/orders", o.List)
}
