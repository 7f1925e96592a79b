package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/handler"
	"github.com/iliyamo/cemetery-plot-registry/internal/middleware"
)

// RegisterAdmin registers the administrative surface: plot inventory,
// reservation review with its payment sub-flow, and burial record
// management.
func RegisterAdmin(e *echo.Echo, p *handler.AdminPlotHandler, r *handler.AdminReservationHandler, b *handler.AdminBurialHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/plots", p.Create)
	g.GET("/plots/:id", p.Get)
	g.PUT("/plots/:id", p.Update)
	g.DELETE("/plots/:id", p.Delete)
	g.POST("/plots/:id/maintenance", p.SetMaintenance)
	g.GET("/plots/:id/burials", b.ListByPlot)
	g.POST("/plots/:id/burials", b.Create)

	g.GET("/reservations", r.List)
	g.POST("/reservations/:id/payment/validate", r.ValidatePayment)
	g.POST("/reservations/:id/payment/approve", r.ApprovePayment)
	g.POST("/reservations/:id/payment/reject", r.RejectPayment)
	g.POST("/reservations/:id/approve", r.Approve)
	g.POST("/reservations/:id/reject", r.Reject)
	g.POST("/reservations/:id/confirm", b.ConfirmFromReservation)

	g.PATCH("/burials/:id", b.Edit)
	g.DELETE("/burials/:id", b.Delete)
}
