package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"leadflow/cmd/internal/crm"
	"leadflow/cmd/internal/realtime"
	v1 "leadflow/shared/contracts/realtime/v1"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// sessionView is the read side of session.Manager used by the status surface.
type sessionView interface {
	Initialized() bool
	IsAuthenticated() bool
	User() (crm.User, bool)
	Tenant() (crm.Tenant, bool)
	DisplayName() string
	Initials() string
}

// realtimeView is the read side of realtime.Monitor.
type realtimeView interface {
	Snapshot() realtime.Snapshot
	Inbox() *realtime.Inbox
}

type statusDeps struct {
	log      Logger
	cfg      Config
	session  sessionView
	realtime realtimeView
	gatherer prometheus.Gatherer

	// dbPing is nil when no database is configured.
	dbPing func(ctx context.Context) error
}

type sessionStatus struct {
	Initialized   bool   `json:"initialized"`
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"display_name,omitempty"`
	Initials      string `json:"initials,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
	TenantID      string `json:"tenant_id,omitempty"`
	TenantName    string `json:"tenant_name,omitempty"`
}

type statusResponse struct {
	Session       sessionStatus                  `json:"session"`
	Realtime      realtime.Snapshot              `json:"realtime"`
	Conversations []realtime.ConversationSummary `json:"conversations"`
}

// newRouter builds the local status surface.
func newRouter(d statusDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(WithRequestLogging(d.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !d.session.Initialized() {
			http.Error(w, "session not initialized", http.StatusServiceUnavailable)
			return
		}
		if !d.session.IsAuthenticated() {
			http.Error(w, "not authenticated", http.StatusServiceUnavailable)
			return
		}
		if d.cfg.ReadinessRequireRealtime && !d.realtime.Snapshot().Connected {
			http.Error(w, "realtime not connected", http.StatusServiceUnavailable)
			return
		}
		if d.dbPing != nil {
			if err := d.dbPing(r.Context()); err != nil {
				d.log.Info("readyz.db.not_ready", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{
			Session:       describeSession(d.session),
			Realtime:      d.realtime.Snapshot(),
			Conversations: d.realtime.Inbox().Conversations(),
		})
	})

	r.Get("/status/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		msgs := d.realtime.Inbox().Recent(chi.URLParam(r, "id"), limit)
		if msgs == nil {
			msgs = []v1.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	})

	if d.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func describeSession(s sessionView) sessionStatus {
	out := sessionStatus{
		Initialized:   s.Initialized(),
		Authenticated: s.IsAuthenticated(),
	}
	if u, ok := s.User(); ok {
		out.DisplayName = s.DisplayName()
		out.Initials = s.Initials()
		out.UserID = u.ID
		out.Email = u.Email
		out.Role = string(u.Role)
	}
	if t, ok := s.Tenant(); ok {
		out.TenantID = t.ID
		out.TenantName = t.Name
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newHTTPServer(cfg Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: nonZeroDuration(cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(cfg.MaxHeaderBytes, 1<<20),
	}
}
