// Package admin implements the Admin REST boundary (spec §6.3): ICE server
// discovery for clients, and operator endpoints for bans, reports, and
// basic stats. Grounded on the teacher's chi usage in
// internal/handler/lp/delivery.go, the only chi-routed handler in the
// pack.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/abuse"
	"github.com/webitel/signal-matchmaker/internal/conntable"
)

type iceServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// NewRouter builds the admin REST mux (spec §6.3): /healthz and /ice are
// public, everything under /admin requires the X-Admin-Secret header.
func NewRouter(cfg *config.Config, ac *abuse.Controller, table *conntable.Table) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/ice", func(w http.ResponseWriter, r *http.Request) {
		servers := []iceServer{{URLs: cfg.STUNURLs}}
		if len(cfg.TURNURLs) > 0 {
			servers = append(servers, iceServer{
				URLs:       cfg.TURNURLs,
				Username:   cfg.TURNUsername,
				Credential: cfg.TURNPassword,
			})
		}
		writeJSON(w, http.StatusOK, servers)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireSecret(cfg.AdminSecret))

		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"active_connections": table.Len(),
				"sampled_at":         time.Now().UTC(),
			})
		})

		r.Get("/reports", func(w http.ResponseWriter, r *http.Request) {
			reports, err := ac.ListReports(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			writeJSON(w, http.StatusOK, reports)
		})

		r.Get("/reports/{ip}", func(w http.ResponseWriter, r *http.Request) {
			ip := chi.URLParam(r, "ip")
			writeJSON(w, http.StatusOK, map[string]any{
				"ip":    ip,
				"count": ac.ReportCount(r.Context(), ip),
			})
		})

		r.Get("/bans", func(w http.ResponseWriter, r *http.Request) {
			bans, err := ac.ListBans(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			writeJSON(w, http.StatusOK, bans)
		})

		r.Post("/clear-reports/{ip}", func(w http.ResponseWriter, r *http.Request) {
			ac.ClearReports(r.Context(), chi.URLParam(r, "ip"))
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/ban/{ip}", func(w http.ResponseWriter, r *http.Request) {
			reason := r.URL.Query().Get("reason")
			if reason == "" {
				reason = "manual ban"
			}
			ac.Ban(r.Context(), chi.URLParam(r, "ip"), reason)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/unban/{ip}", func(w http.ResponseWriter, r *http.Request) {
			ac.Unban(r.Context(), chi.URLParam(r, "ip"))
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// requireSecret gates /admin behind a static shared secret (spec §6.3) —
// there is no operator identity system in scope, just a bearer-style
// header check.
func requireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Header.Get("X-Admin-Secret") != secret {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
