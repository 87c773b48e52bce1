package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/shopkit/ticket-seller/internal/handler"    // handlers implementing the business logic
	"github.com/shopkit/ticket-seller/internal/middleware" // middleware for JWT authentication and role enforcement
	"github.com/shopkit/ticket-seller/internal/model"      // role constants shared with the middleware
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalogue reads.  The
// optional cache middleware is applied to these routes only: they are
// read-heavy and tolerate a few seconds of staleness, whereas the
// checkout surface must always see live hold state.
func RegisterPublic(e *echo.Echo, ev *handler.EventsHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	// Browse published events.
	e.GET("/v1/events", ev.ListEvents, mws...)
	// Event detail with ticket types and remaining availability.
	e.GET("/v1/events/:id", ev.GetEvent, mws...)
	// Seat map with effective per-seat status.
	e.GET("/v1/events/:id/seats", ev.GetSeatMap, mws...)
}

// RegisterCheckout registers the hold and order endpoints consumed by
// the storefront's checkout.  These are server-to-server calls; they
// carry no end-user session, so no JWT group applies here.
func RegisterCheckout(e *echo.Echo, inv *handler.InventoryHandler) {
	// Place an all-or-nothing seat or capacity hold for an event.
	e.POST("/v1/events/:id/holds", inv.HoldInventory)
	// Release a hold early; safe to repeat.
	e.DELETE("/v1/holds/:token", inv.ReleaseHold)
	// Convert holds into issued tickets after payment settles.
	e.POST("/v1/orders/:id/finalize", inv.FinalizeOrder)
	// Cancel an order and free its seats.
	e.POST("/v1/orders/:id/cancel", inv.CancelOrder)
	// Force one reclamation pass outside the scheduler cadence.
	e.POST("/v1/internal/sweep", inv.Sweep)
}

// RegisterAuth registers the staff login endpoint and the
// authenticated identity probe.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Login lives outside the protected group: it is how a session starts.
	e.POST("/v1/auth/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleStaff, model.RoleManager))
	auth.GET("/me", a.Me)
}

// RegisterStaff registers the door-scanner and back-office routes.
// Both roles may scan; listing and exporting tickets is also open to
// plain staff so the box office can resolve disputes at the door.
func RegisterStaff(e *echo.Echo, jwtSecret string, ci *handler.CheckinHandler, tk *handler.TicketsHandler) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleStaff, model.RoleManager))

	// Admit a ticket by id or code.
	g.POST("/check-ins", ci.CheckIn)
	// Live attendance counters for the scanner dashboard.
	g.GET("/events/:id/check-ins/stats", ci.Stats)
	// Recent scans, newest first.
	g.GET("/events/:id/check-ins", ci.List)
	// Ticket lookup and listing.
	g.GET("/tickets/:id", tk.Get)
	g.GET("/tickets/code/:code", tk.GetByCode)
	g.GET("/events/:id/tickets", tk.List)
	// Attendee list as CSV.
	g.GET("/events/:id/tickets/export", tk.Export)
}

// RegisterAdmin registers the manager-only setup and moderation
// routes: event and chart creation, publishing, and manual ticket
// cancellation.
func RegisterAdmin(e *echo.Echo, jwtSecret string, ad *handler.AdminHandler, tk *handler.TicketsHandler) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleManager))

	g.POST("/events", ad.CreateEvent)
	g.PATCH("/events/:id/status", ad.UpdateEventStatus)
	g.POST("/events/:id/types", ad.CreateTicketType)
	g.POST("/charts", ad.CreateChart)
	g.POST("/users", ad.CreateUser)
	// Manual cancellation frees the seat and emits ticket.cancelled.
	g.POST("/tickets/:id/cancel", tk.Cancel)
}
