package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/handler"
	"github.com/iliyamo/cemetery-plot-registry/internal/middleware"
)

// RegisterVisitor registers the authenticated visitor surface:
// reservations, the holder side of the payment flow, and request
// tickets.  Staff and admins share these routes since they can also
// file requests and cancel reservations.
func RegisterVisitor(e *echo.Echo, v *handler.VisitorHandler, r *handler.RequestHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("VISITOR", "STAFF", "ADMIN"))

	g.POST("/plots/:id/reserve", v.ReservePlot)
	g.GET("/reservations", v.MyReservations)
	g.POST("/reservations/:id/receipt", v.UploadReceipt)
	g.POST("/reservations/:id/cancel", v.CancelReservation)

	g.POST("/requests", r.Submit)
	g.GET("/requests", r.Mine)
	g.POST("/requests/:id/cancel", r.Cancel)
}
