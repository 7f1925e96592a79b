package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/handler"
	"github.com/iliyamo/cemetery-plot-registry/internal/middleware"
)

// RegisterStaff registers the request review queue and direct burial
// registration, shared by staff and admins.  The capability matrix in
// the workflow facade decides what each role may actually do; the role
// middleware here only keeps visitors out.
func RegisterStaff(e *echo.Echo, r *handler.RequestHandler, b *handler.AdminBurialHandler, jwtSecret string) {
	g := e.Group("/v1/staff")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("STAFF", "ADMIN"))

	g.GET("/requests", r.Queue)
	g.POST("/requests/:id/confirm", r.Confirm)
	g.POST("/requests/:id/reject", r.Reject)
	g.POST("/requests/:id/complete", r.Complete)
	g.POST("/requests/:id/promote", r.Promote)

	g.POST("/plots/:id/burials", b.Create)
}
