package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"leadflow/cmd/internal/auth/api"
	"leadflow/cmd/internal/crm"
	"leadflow/cmd/internal/httpapi"
	"leadflow/cmd/security/password"
	"leadflow/cmd/security/token"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Authenticator is the auth backend the manager talks to.
type Authenticator interface {
	Login(ctx context.Context, in authapi.LoginRequest) (authapi.AuthResponse, error)
	Register(ctx context.Context, in authapi.RegisterRequest) (authapi.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (authapi.TokenPair, error)
	CurrentUser(ctx context.Context) (crm.User, crm.Tenant, error)
}

// Logout reasons passed to OnLogout listeners.
const (
	ReasonLogout        = "logout"
	ReasonRefreshFailed = "refresh_failed"
	ReasonInitFailed    = "init_failed"
)

// Option customizes a Manager.
type Option func(*Manager)

// WithPasswordPolicy sets the policy Register checks before calling the server.
func WithPasswordPolicy(p password.Policy) Option {
	return func(m *Manager) { m.pw = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager is the session and token manager.
// It is safe for concurrent use.
type Manager struct {
	cfg   Config
	store TokenStore
	auth  Authenticator
	log   *slog.Logger
	pw    password.Policy
	now   func() time.Time

	initMu  sync.Mutex // serializes Initialize
	storeMu sync.Mutex // orders writes to store

	mu          sync.RWMutex
	access      string
	refresh     string
	expiry      time.Time
	user        *crm.User
	tenant      *crm.Tenant
	initialized bool
	epoch       uint64

	refreshes singleflight.Group

	lmu       sync.Mutex
	listeners map[int]func(reason string)
	nextID    int
}

// Open builds a Manager and hydrates it from store.
func Open(ctx context.Context, cfg Config, store TokenStore, auth Authenticator, log *slog.Logger, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		cfg:       cfg,
		store:     store,
		auth:      auth,
		log:       log,
		pw:        password.DefaultConfig().Policy,
		now:       time.Now,
		listeners: make(map[int]func(string)),
	}
	for _, opt := range opts {
		opt(m)
	}

	t, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	m.access = t.Access
	m.refresh = t.Refresh
	m.expiry = AccessExpiry(t.Access)

	m.log.Info("session.hydrate",
		"profile", cfg.Profile,
		"has_access", t.Access != "",
		"has_refresh", t.Refresh != "",
		"access_fp", token.Fingerprint(t.Access),
	)
	return m, nil
}

// Initialize resolves the current user once. Later calls return the current
// authentication state without touching the network.
//
// With an access token held, it fetches user and tenant. If that fails it
// refreshes once and fetches again; if that also fails the session is cleared.
func (m *Manager) Initialize(ctx context.Context) bool {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	m.mu.RLock()
	initialized, has := m.initialized, m.access != ""
	m.mu.RUnlock()
	if initialized {
		return m.IsAuthenticated()
	}

	ok := false
	if has {
		ok = m.resolvePrincipal(ctx)
	}

	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()

	m.log.Info("session.init", "authenticated", ok)
	return ok
}

func (m *Manager) resolvePrincipal(ctx context.Context) bool {
	user, tenant, err := m.auth.CurrentUser(ctx)
	if err == nil {
		m.setPrincipal(user, tenant)
		return true
	}
	m.log.Warn("session.init.fetch.fail", "err", err)

	if !m.RefreshAccessToken(ctx) {
		m.end(ctx, ReasonInitFailed)
		return false
	}

	user, tenant, err = m.auth.CurrentUser(ctx)
	if err != nil {
		m.log.Warn("session.init.refetch.fail", "err", err)
		m.end(ctx, ReasonInitFailed)
		return false
	}
	m.setPrincipal(user, tenant)
	return true
}

func (m *Manager) setPrincipal(u crm.User, t crm.Tenant) {
	m.mu.Lock()
	m.user = &u
	m.tenant = &t
	m.mu.Unlock()
}

// Login exchanges credentials. On failure the held tokens are untouched and
// the returned *AuthError carries a user-displayable message.
func (m *Manager) Login(ctx context.Context, in authapi.LoginRequest) error {
	resp, err := m.auth.Login(ctx, in)
	if err != nil {
		m.log.Info("session.login.fail", "err", err)
		return &AuthError{Op: "login", Message: httpapi.Detail(err, m.cfg.LoginFailedMessage), Err: err}
	}
	m.establish(ctx, resp)
	m.log.Info("session.login", "user_id", resp.User.ID, "tenant_id", resp.Tenant.ID)
	return nil
}

// Register validates the password locally, then creates the account and
// signs in like Login.
func (m *Manager) Register(ctx context.Context, in authapi.RegisterRequest) error {
	if err := m.pw.Validate(in.Password); err != nil {
		return &AuthError{Op: "register", Message: err.Error(), Err: err}
	}
	resp, err := m.auth.Register(ctx, in)
	if err != nil {
		m.log.Info("session.register.fail", "err", err)
		return &AuthError{Op: "register", Message: httpapi.Detail(err, m.cfg.RegisterFailedMessage), Err: err}
	}
	m.establish(ctx, resp)
	m.log.Info("session.register", "user_id", resp.User.ID, "tenant_id", resp.Tenant.ID)
	return nil
}

func (m *Manager) establish(ctx context.Context, resp authapi.AuthResponse) {
	m.mu.Lock()
	m.access = resp.AccessToken
	m.refresh = resp.RefreshToken
	m.expiry = expiryFor(resp.AccessToken, resp.ExpiresIn, m.now())
	u, t := resp.User, resp.Tenant
	m.user, m.tenant = &u, &t
	m.epoch++
	m.mu.Unlock()

	m.persist(ctx)
}

// RefreshAccessToken exchanges the refresh token for a new pair.
//
// It returns false without a network call when no refresh token is held.
// Concurrent callers share one exchange. A failed exchange ends the session.
func (m *Manager) RefreshAccessToken(ctx context.Context) bool {
	m.mu.RLock()
	rt, epoch := m.refresh, m.epoch
	m.mu.RUnlock()
	if rt == "" {
		return false
	}

	v, _, _ := m.refreshes.Do(token.Fingerprint(rt), func() (any, error) {
		return m.exchange(ctx, rt, epoch), nil
	})
	return v.(bool)
}

func (m *Manager) exchange(ctx context.Context, rt string, epoch uint64) bool {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.RefreshTimeout)
	defer cancel()

	pair, err := m.auth.Refresh(rctx, rt)
	if err != nil {
		m.log.Warn("session.refresh.fail", "refresh_fp", token.Fingerprint(rt), "err", err)
		m.endAt(ctx, ReasonRefreshFailed, epoch)
		return false
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.log.Info("session.refresh.discarded", "reason", "session_changed")
		return false
	}
	m.access = pair.AccessToken
	if pair.RefreshToken != "" {
		m.refresh = pair.RefreshToken
	}
	m.expiry = expiryFor(pair.AccessToken, pair.ExpiresIn, m.now())
	m.epoch++
	m.mu.Unlock()

	m.persist(ctx)
	m.log.Info("session.refresh", "access_fp", token.Fingerprint(pair.AccessToken))
	return true
}

// Logout clears tokens, user and tenant from memory and storage. Idempotent.
func (m *Manager) Logout(ctx context.Context) {
	m.end(ctx, ReasonLogout)
}

func (m *Manager) end(ctx context.Context, reason string) {
	for {
		m.mu.RLock()
		epoch := m.epoch
		m.mu.RUnlock()
		if m.endAt(ctx, reason, epoch) {
			return
		}
	}
}

// endAt clears the session only if it is still the one seen at epoch; a login
// or logout that happened in between wins.
func (m *Manager) endAt(ctx context.Context, reason string, epoch uint64) bool {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return false
	}
	had := m.access != "" || m.refresh != "" || m.user != nil
	m.access, m.refresh = "", ""
	m.expiry = time.Time{}
	m.user, m.tenant = nil, nil
	m.epoch++
	m.mu.Unlock()

	m.persist(ctx)
	if had {
		m.log.Info("session.end", "reason", reason)
		m.notify(reason)
	}
	return true
}

// persist writes the in-memory pair as it is now. Writes are serialized, so
// the store always ends with the latest state.
func (m *Manager) persist(ctx context.Context) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.RLock()
	t := Tokens{Access: m.access, Refresh: m.refresh}
	m.mu.RUnlock()

	wctx := context.WithoutCancel(ctx)
	var err error
	if t.Empty() {
		err = m.store.Clear(wctx)
	} else {
		err = m.store.Save(wctx, t)
	}
	if err != nil {
		m.log.Error("session.store.write.fail", "err", err)
	}
}

// OnLogout registers fn to run whenever a held session ends. The returned
// func deregisters it.
func (m *Manager) OnLogout(fn func(reason string)) (cancel func()) {
	m.lmu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.lmu.Lock()
			delete(m.listeners, id)
			m.lmu.Unlock()
		})
	}
}

func (m *Manager) notify(reason string) {
	m.lmu.Lock()
	fns := make([]func(string), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.lmu.Unlock()

	for _, fn := range fns {
		fn(reason)
	}
}

// IsAuthenticated reports whether an access token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access != ""
}

// Initialized reports whether Initialize has completed once.
func (m *Manager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// AccessToken returns the current access token, or "".
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

// Token implements oauth2.TokenSource.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.access == "" {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken:  m.access,
		TokenType:    "Bearer",
		RefreshToken: m.refresh,
		Expiry:       m.expiry,
	}, nil
}

// User returns the current user, if loaded.
func (m *Manager) User() (crm.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return crm.User{}, false
	}
	return *m.user, true
}

// Tenant returns the current tenant, if loaded.
func (m *Manager) Tenant() (crm.Tenant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tenant == nil {
		return crm.Tenant{}, false
	}
	return *m.tenant, true
}

// DisplayName is the user's full name, falling back to the short name.
func (m *Manager) DisplayName() string {
	u, ok := m.User()
	if !ok {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Name
}

// Initials derives the avatar initials from DisplayName.
func (m *Manager) Initials() string {
	return Initials(m.DisplayName())
}
