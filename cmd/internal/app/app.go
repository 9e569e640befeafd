// Package app wires the leadflow daemon: config, logging, the token store,
// the session manager, the realtime monitor and a local status surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	authapi "leadflow/cmd/internal/auth/api"
	"leadflow/cmd/internal/auth/session"
	"leadflow/cmd/internal/crm"
	"leadflow/cmd/internal/httpapi"
	"leadflow/cmd/internal/realtime"
	"leadflow/cmd/security/password"
	v1 "leadflow/shared/contracts/realtime/v1"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// backfillConcurrency bounds parallel conversation fetches at startup.
const backfillConcurrency = 4

// App is the daemon runtime. It owns the token backend, the session, the
// realtime client and the status HTTP server.
type App struct {
	cfg Config
	log Logger

	tokens  tokenBackend
	api     *httpapi.Client
	crm     *crm.Client
	session *session.Manager
	rt      *realtime.Client
	monitor *realtime.Monitor

	registry *prometheus.Registry
	handler  http.Handler

	stopLogout func()
}

// New constructs a fully wired App. The session is hydrated from the token
// store but not yet validated; Run does that.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiCfg, err := httpapi.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("api config: %w", err)
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	rtCfg, err := realtime.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("realtime config: %w", err)
	}
	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("password config: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tokens, err := openTokenStore(ctx, cfg, pwCfg.KDF, sessCfg.Profile, log)
	if err != nil {
		return nil, err
	}

	api, err := httpapi.NewClient(apiCfg, log,
		httpapi.WithMetrics(httpapi.NewMetrics(reg)),
		httpapi.WithUnauthorizedHandler(func(context.Context) {
			log.Warn("app.unauthorized", "action", "sign in again")
		}),
	)
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	mgr, err := session.Open(ctx, sessCfg, tokens.store, authapi.New(api), log,
		session.WithPasswordPolicy(pwCfg.Policy),
	)
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}
	api.Bind(mgr)

	rt, err := realtime.New(rtCfg, mgr, log, realtime.WithMetrics(realtime.NewMetrics(reg)))
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		tokens:   tokens,
		api:      api,
		crm:      crm.New(api),
		session:  mgr,
		rt:       rt,
		monitor:  realtime.NewMonitor(rt, log),
		registry: reg,
	}

	if len(cfg.WatchConversations) > 0 {
		rt.On(v1.TypeConnectionEstablished, func(v1.Event) error {
			for _, id := range cfg.WatchConversations {
				rt.SubscribeConversation(id)
			}
			return nil
		})
	}

	a.stopLogout = mgr.OnLogout(func(reason string) {
		log.Info("app.session.ended", "reason", reason)
		a.monitor.Stop()
	})

	deps := statusDeps{
		log:      log,
		cfg:      cfg,
		session:  mgr,
		realtime: a.monitor,
		gatherer: reg,
	}
	if tokens.pool != nil {
		deps.dbPing = tokens.ping
	}
	a.handler = newRouter(deps)

	return a, nil
}

// Handler returns the status surface.
func (a *App) Handler() http.Handler { return a.handler }

// Run validates the session, signs in when credentials are configured,
// starts the realtime monitor and serves the status surface until ctx ends.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.authenticate(ctx); err != nil {
		return err
	}
	if a.session.IsAuthenticated() {
		a.log.Info("app.session.ready", "user", a.session.DisplayName(), "initials", a.session.Initials())
		a.backfill(ctx)
		a.monitor.Start()
	} else {
		a.log.Warn("app.session.none", "hint", "set LEADFLOW_EMAIL and LEADFLOW_PASSWORD")
	}

	srv := newHTTPServer(a.cfg, a.handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("server.start", "addr", a.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", "context_done")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})

	err := g.Wait()
	a.log.Info("server.stopped")
	return err
}

func (a *App) authenticate(ctx context.Context) error {
	if a.session.Initialize(ctx) {
		return nil
	}
	if a.cfg.Email == "" {
		return nil
	}
	err := a.session.Login(ctx, authapi.LoginRequest{Email: a.cfg.Email, Password: a.cfg.Password})
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("sign in: %s", authErr.Message)
		}
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

// backfill seeds the inbox with the watched conversations' history so the
// status surface is useful before the first realtime event arrives.
func (a *App) backfill(ctx context.Context) {
	if len(a.cfg.WatchConversations) == 0 {
		return
	}
	inbox := a.monitor.Inbox()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backfillConcurrency)
	for _, id := range a.cfg.WatchConversations {
		g.Go(func() error {
			conv, err := a.crm.Conversations.Get(gctx, id)
			if err != nil {
				a.log.Warn("app.backfill.fail", "conversation_id", id, "status", httpapi.StatusCode(err), "err", err)
				return nil
			}
			for _, m := range conv.Messages {
				inbox.Add(m, m.CreatedAt.Time)
			}
			inbox.SetConversation(conv.Conversation, conv.LastMessageAt.Time)
			return nil
		})
	}
	_ = g.Wait()
}

func (a *App) close() {
	a.stopLogout()
	a.monitor.Stop()
	a.rt.Close()
	if err := a.tokens.Close(); err != nil {
		a.log.Error("tokens.close.fail", "err", err)
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
