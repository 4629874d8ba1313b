package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/trip-reservation/internal/handler"
)

// RegisterRoutes registers the public surface of the booking core.
// Every endpoint is anonymous: holds are created by visitors, the
// webhook authenticates itself with its signature, and reads are keyed
// by identifiers only the requester knows.  The rate-limit middleware
// is applied solely to hold creation – the one endpoint that writes on
// behalf of an unauthenticated caller.
func RegisterRoutes(e *echo.Echo, b *handler.BookingHandler, w *handler.WebhookHandler, rateLimit echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	// Start a booking attempt: hold seats and obtain a payment intent.
	v1.POST("/trips/:id/holds", b.CreateHold, rateLimit)
	// Poll an in-flight hold.  Gone means finalized or expired; the
	// endpoint deliberately does not distinguish the two.
	v1.GET("/holds/:id", b.GetHold)
	// Look up a committed reservation by its booking reference.
	v1.GET("/reservations/:ref", b.GetReservation)
	// Payment gateway callback.  Signature-verified inside the handler.
	v1.POST("/payments/webhook", w.Handle)
}
