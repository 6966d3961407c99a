package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/sse"
	"github.com/starford/propscope/internal/userdata"
)

// Deps bundles what the router needs. Assistant and Broker may be nil.
type Deps struct {
	Catalog     *catalog.Catalog
	Users       *userdata.Service
	Assistant   *assistant.Service
	Broker      *sse.Broker
	AuthEnabled bool
	AuthToken   string
}

// NewRouter creates a chi router with all API routes mounted.
// AuthEnabled controls whether Bearer token auth is enforced; the demo
// session token is separate and only scopes per-user state.
func NewRouter(d Deps) chi.Router {
	ph := &propertyHandler{cat: d.Catalog}
	uh := &userHandler{users: d.Users, broker: d.Broker}
	ch := &chatHandler{users: d.Users, ai: d.Assistant}

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.AuthEnabled, d.AuthToken))

	// Catalog.
	r.Get("/properties", ph.List)
	r.Get("/properties/compare", ph.Compare)
	r.Get("/properties/{id}", ph.Get)
	r.Get("/map/markers", ph.Markers)
	r.Get("/stats", ph.Stats)
	r.Get("/status/legend", ph.Legend)

	// Session.
	r.Post("/session", uh.Login)
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(d.Users, true))
		r.Get("/session", uh.Me)
		r.Delete("/session", uh.Logout)

		r.Get("/saved", uh.ListSaved)
		r.Put("/saved/{id}", uh.Save)
		r.Delete("/saved/{id}", uh.Unsave)

		r.Get("/alerts", uh.ListAlerts)
		r.Post("/alerts", uh.CreateAlert)
		r.Get("/alerts/unread", uh.UnreadAlerts)
		r.Post("/alerts/{id}/read", uh.MarkRead)

		r.Get("/onboarding", uh.Onboarding)
		r.Put("/onboarding", uh.CompleteOnboarding)
		r.Delete("/onboarding", uh.ResetOnboarding)

		r.Get("/chat/history", ch.History)
		r.Delete("/chat/history", ch.ClearHistory)
	})

	// Chat and events work anonymously; a session adds history and private events.
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(d.Users, false))
		r.Post("/chat", ch.Ask)
		if d.Broker != nil {
			r.Get("/events", eventsHandler(d.Broker))
		}
	})

	return r
}

func eventsHandler(b *sse.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if u, ok := userFrom(r.Context()); ok {
			r = r.WithContext(sse.WithUser(r.Context(), u.ID))
		}
		b.ServeHTTP(w, r)
	}
}
