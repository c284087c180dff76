/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend
  5. allowList:  Maps the X-User login to a roster player

AUTHORIZATION:
  With allowedUsers configured, every /api request must carry an X-User
  header whose login is on the list. Admin routes additionally require the
  login to be in adminUsers. With an empty allow-list the API is open,
  which is the single-office-LAN deployment mode.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// userHeader carries the caller's GitHub login.
const userHeader = "X-User"

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", userHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(h.allowList)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.ListPlayers)
			r.Get("/{name}", h.GetPlayer)
			r.Post("/{name}/infractions", h.AddInfraction)
			r.Get("/{name}/vacations", h.ListVacations)
			r.Post("/{name}/vacations", h.AddVacation)
			r.Delete("/{name}/vacations/{id}", h.RemoveVacation)
			r.Post("/{name}/purchases", h.Purchase)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.With(h.adminOnly).Post("/", h.AddHoliday)
			r.With(h.adminOnly).Delete("/{id}", h.RemoveHoliday)
		})

		r.Route("/shop", func(r chi.Router) {
			r.Get("/items", h.ListShopItems)
			r.Get("/purchases", h.ListPurchases)
		})

		r.Get("/achievements", h.ListAchievements)
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/report", h.Report)

		r.Post("/sync", h.Sync)
		r.Get("/export", h.Export)
		r.With(h.adminOnly).Post("/import", h.Import)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.adminOnly)
			r.Post("/force-reset", h.ForceReset)
			r.Post("/sweep", h.Sweep)
		})
	})

	return r
}

// allowList rejects logins outside the configured allow-list. An empty
// allow-list disables the check.
func (h *Handler) allowList(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.Cfg.AllowedUsers) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		login := r.Header.Get(userHeader)
		if _, ok := h.Cfg.PlayerFor(login); !ok && !h.Cfg.IsAdmin(login) {
			writeError(w, http.StatusForbidden, "User not authorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly additionally requires an admin login. With no admins configured
// the check is disabled.
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.Cfg.AdminUsers) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !h.Cfg.IsAdmin(r.Header.Get(userHeader)) {
			writeError(w, http.StatusForbidden, "Administrator access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
