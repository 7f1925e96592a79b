// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/handler"
	"github.com/iliyamo/cemetery-plot-registry/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication at all.
func RegisterRoutes(e *echo.Echo) {
	// Liveness probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface.  Token-issuing
// operations live under /v1/auth without middleware; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout works with either a bearer token or a refresh token in the
	// body, so it stays outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalogue: plot browsing,
// section listing, status counts and grave search.  The cache middleware
// (when enabled) fronts exactly these routes.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/plots", p.ListPlots)
	// The path parameter is the plot's public UUID, but it shares the
	// :id name with the authenticated plot routes because the router
	// requires one param name per path position.
	g.GET("/plots/:id", p.GetPlot)
	g.GET("/sections", p.ListSections)
	g.GET("/stats", p.Stats)
	g.GET("/graves", p.SearchGraves)
}
