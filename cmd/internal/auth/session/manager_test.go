package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"leadflow/cmd/internal/auth/api"
	"leadflow/cmd/internal/crm"
	"leadflow/cmd/internal/httpapi"
	"leadflow/cmd/security/password"
)

type fakeAuth struct {
	mu sync.Mutex

	loginResp authapi.AuthResponse
	loginErr  error

	refreshPair  authapi.TokenPair
	refreshErr   error
	refreshGate  chan struct{} // when set, Refresh blocks until closed
	refreshCalls atomic.Int32

	// me results are consumed in order; the last one repeats.
	me      []meResult
	meCalls atomic.Int32
}

type meResult struct {
	user   crm.User
	tenant crm.Tenant
	err    error
}

func (f *fakeAuth) Login(ctx context.Context, in authapi.LoginRequest) (authapi.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, in authapi.RegisterRequest) (authapi.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Refresh(ctx context.Context, rt string) (authapi.TokenPair, error) {
	f.refreshCalls.Add(1)
	if f.refreshGate != nil {
		<-f.refreshGate
	}
	return f.refreshPair, f.refreshErr
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (crm.User, crm.Tenant, error) {
	n := int(f.meCalls.Add(1)) - 1
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.me) == 0 {
		return crm.User{}, crm.Tenant{}, errors.New("no user")
	}
	if n >= len(f.me) {
		n = len(f.me) - 1
	}
	r := f.me[n]
	return r.user, r.tenant, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openManager(t *testing.T, store TokenStore, auth Authenticator, opts ...Option) *Manager {
	t.Helper()
	m, err := Open(context.Background(), DefaultConfig(), store, auth, discardLogger(), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return m
}

func seeded(access, refresh string) *MemoryStore {
	s := NewMemoryStore()
	_ = s.Save(context.Background(), Tokens{Access: access, Refresh: refresh})
	return s
}

var (
	alice  = crm.User{ID: "u1", FullName: "Alice Doe", Email: "alice@example.com"}
	acme   = crm.Tenant{ID: "t1", Name: "Acme"}
	errMe  = &httpapi.Error{Method: "GET", Path: "/users/me", Status: 401}
	errBad = &httpapi.Error{Method: "POST", Path: "/auth/refresh", Status: 401}
)

func TestInitialize_NoToken(t *testing.T) {
	auth := &fakeAuth{}
	m := openManager(t, NewMemoryStore(), auth)

	if m.Initialize(context.Background()) {
		t.Fatalf("expected unauthenticated")
	}
	if !m.Initialized() {
		t.Fatalf("expected initialized")
	}
	if auth.meCalls.Load() != 0 || auth.refreshCalls.Load() != 0 {
		t.Fatalf("expected no network calls")
	}
}

func TestInitialize_ValidToken(t *testing.T) {
	auth := &fakeAuth{me: []meResult{{user: alice, tenant: acme}}}
	m := openManager(t, seeded("A", "R"), auth)

	if !m.Initialize(context.Background()) {
		t.Fatalf("expected authenticated")
	}
	u, ok := m.User()
	if !ok || u.ID != "u1" {
		t.Fatalf("user=%+v ok=%v", u, ok)
	}
	if ten, ok := m.Tenant(); !ok || ten.ID != "t1" {
		t.Fatalf("tenant=%+v ok=%v", ten, ok)
	}

	// Second call does not hit the network.
	if !m.Initialize(context.Background()) {
		t.Fatalf("expected authenticated on second call")
	}
	if got := auth.meCalls.Load(); got != 1 {
		t.Fatalf("meCalls=%d want=1", got)
	}
}

func TestInitialize_RefreshThenRefetch(t *testing.T) {
	auth := &fakeAuth{
		me:          []meResult{{err: errMe}, {user: alice, tenant: acme}},
		refreshPair: authapi.TokenPair{AccessToken: "A2", RefreshToken: "R2"},
	}
	store := seeded("A", "R")
	m := openManager(t, store, auth)

	if !m.Initialize(context.Background()) {
		t.Fatalf("expected authenticated")
	}
	if auth.meCalls.Load() != 2 || auth.refreshCalls.Load() != 1 {
		t.Fatalf("meCalls=%d refreshCalls=%d", auth.meCalls.Load(), auth.refreshCalls.Load())
	}
	if m.AccessToken() != "A2" {
		t.Fatalf("access=%q", m.AccessToken())
	}
	got, _ := store.Load(context.Background())
	if got.Access != "A2" || got.Refresh != "R2" {
		t.Fatalf("persisted=%+v", got)
	}
}

func TestInitialize_AllFail(t *testing.T) {
	auth := &fakeAuth{me: []meResult{{err: errMe}}, refreshErr: errBad}
	store := seeded("A", "R")
	m := openManager(t, store, auth)

	if m.Initialize(context.Background()) {
		t.Fatalf("expected unauthenticated")
	}
	if m.IsAuthenticated() {
		t.Fatalf("session should be cleared")
	}
	got, _ := store.Load(context.Background())
	if !got.Empty() {
		t.Fatalf("store not cleared: %+v", got)
	}
	if _, ok := m.User(); ok {
		t.Fatalf("user should be cleared")
	}
}

func TestRefresh_NoRefreshToken(t *testing.T) {
	auth := &fakeAuth{}
	m := openManager(t, seeded("A", ""), auth)

	if m.RefreshAccessToken(context.Background()) {
		t.Fatalf("expected false")
	}
	if auth.refreshCalls.Load() != 0 {
		t.Fatalf("expected no refresh call")
	}
}

func TestRefresh_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	auth := &fakeAuth{refreshPair: authapi.TokenPair{AccessToken: "A2"}}
	m := openManager(t, seeded("A", "R"), auth)

	if !m.RefreshAccessToken(context.Background()) {
		t.Fatalf("expected refresh ok")
	}
	tok, err := m.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "A2" || tok.RefreshToken != "R" {
		t.Fatalf("tok=%+v", tok)
	}
}

func TestRefresh_ConcurrentCallersShareOneExchange(t *testing.T) {
	gate := make(chan struct{})
	auth := &fakeAuth{
		refreshPair: authapi.TokenPair{AccessToken: "A2", RefreshToken: "R2"},
		refreshGate: gate,
	}
	m := openManager(t, seeded("A", "R"), auth)

	const n = 8
	results := make(chan bool, n)
	var started sync.WaitGroup
	started.Add(n)
	for range n {
		go func() {
			started.Done()
			results <- m.RefreshAccessToken(context.Background())
		}()
	}
	started.Wait()

	// Give the callers time to join the in-flight exchange.
	deadline := time.Now().Add(2 * time.Second)
	for auth.refreshCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)

	for range n {
		if !<-results {
			t.Fatalf("expected every caller to see success")
		}
	}
	if got := auth.refreshCalls.Load(); got != 1 {
		t.Fatalf("refreshCalls=%d want=1", got)
	}
}

func TestRefresh_LogoutDuringRefreshWins(t *testing.T) {
	gate := make(chan struct{})
	auth := &fakeAuth{
		refreshPair: authapi.TokenPair{AccessToken: "A2", RefreshToken: "R2"},
		refreshGate: gate,
	}
	store := seeded("A", "R")
	m := openManager(t, store, auth)

	done := make(chan bool, 1)
	go func() { done <- m.RefreshAccessToken(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for auth.refreshCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.Logout(context.Background())
	close(gate)

	if <-done {
		t.Fatalf("refresh result should be discarded")
	}
	if m.IsAuthenticated() {
		t.Fatalf("logout must win over late refresh")
	}
	got, _ := store.Load(context.Background())
	if !got.Empty() {
		t.Fatalf("store=%+v want empty", got)
	}
}

func TestRefresh_FailureEndsSession(t *testing.T) {
	auth := &fakeAuth{refreshErr: errBad}
	m := openManager(t, seeded("A", "R"), auth)

	var reasons []string
	m.OnLogout(func(r string) { reasons = append(reasons, r) })

	if m.RefreshAccessToken(context.Background()) {
		t.Fatalf("expected false")
	}
	if m.IsAuthenticated() {
		t.Fatalf("expected cleared session")
	}
	if len(reasons) != 1 || reasons[0] != ReasonRefreshFailed {
		t.Fatalf("reasons=%v", reasons)
	}
}

func TestLogin_Success(t *testing.T) {
	auth := &fakeAuth{loginResp: authapi.AuthResponse{
		TokenPair: authapi.TokenPair{AccessToken: "A", RefreshToken: "R", ExpiresIn: 1800},
		User:      alice,
		Tenant:    acme,
	}}
	store := NewMemoryStore()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := openManager(t, store, auth, WithClock(func() time.Time { return now }))

	if err := m.Login(context.Background(), authapi.LoginRequest{Email: "alice@example.com", Password: "senha123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !m.IsAuthenticated() {
		t.Fatalf("expected authenticated")
	}
	tok, _ := m.Token()
	if want := now.Add(30 * time.Minute); !tok.Expiry.Equal(want) {
		t.Fatalf("expiry=%v want=%v", tok.Expiry, want)
	}
	if m.DisplayName() != "Alice Doe" || m.Initials() != "AD" {
		t.Fatalf("display=%q initials=%q", m.DisplayName(), m.Initials())
	}
	got, _ := store.Load(context.Background())
	if got.Access != "A" || got.Refresh != "R" {
		t.Fatalf("persisted=%+v", got)
	}
}

func TestLogin_FailureKeepsState(t *testing.T) {
	auth := &fakeAuth{loginErr: &httpapi.Error{Status: 401, Detail: "Invalid credentials"}}
	m := openManager(t, seeded("A", "R"), auth)

	err := m.Login(context.Background(), authapi.LoginRequest{Email: "x", Password: "y"})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("err=%v want *AuthError", err)
	}
	if ae.Message != "Invalid credentials" {
		t.Fatalf("message=%q", ae.Message)
	}
	if m.AccessToken() != "A" {
		t.Fatalf("existing tokens must be untouched")
	}
}

func TestLogin_FailureFallbackMessage(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("dial tcp: connection refused")}
	m := openManager(t, NewMemoryStore(), auth)

	err := m.Login(context.Background(), authapi.LoginRequest{})
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Message != DefaultConfig().LoginFailedMessage {
		t.Fatalf("err=%v", err)
	}
}

func TestRegister_WeakPasswordRejectedLocally(t *testing.T) {
	auth := &fakeAuth{}
	m := openManager(t, NewMemoryStore(), auth, WithPasswordPolicy(password.DefaultConfig().Policy))

	err := m.Register(context.Background(), authapi.RegisterRequest{Email: "a@b.c", Password: "abcdefgh"})
	if !errors.Is(err, password.ErrMissingDigit) {
		t.Fatalf("err=%v want ErrMissingDigit", err)
	}
	if m.IsAuthenticated() {
		t.Fatalf("expected unauthenticated")
	}
}

func TestLogout_IdempotentAndNotifies(t *testing.T) {
	m := openManager(t, seeded("A", "R"), &fakeAuth{})

	var calls atomic.Int32
	cancel := m.OnLogout(func(r string) {
		if r != ReasonLogout {
			t.Errorf("reason=%q", r)
		}
		calls.Add(1)
	})
	defer cancel()

	m.Logout(context.Background())
	m.Logout(context.Background())

	if got := calls.Load(); got != 1 {
		t.Fatalf("listener calls=%d want=1", got)
	}
	if _, err := m.Token(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Token err=%v", err)
	}
}

func TestOnLogout_Cancel(t *testing.T) {
	m := openManager(t, seeded("A", "R"), &fakeAuth{})

	var calls atomic.Int32
	cancel := m.OnLogout(func(string) { calls.Add(1) })
	cancel()
	cancel()

	m.Logout(context.Background())
	if calls.Load() != 0 {
		t.Fatalf("cancelled listener was called")
	}
}

func TestOpen_HydratesFromStore(t *testing.T) {
	m := openManager(t, seeded("A", "R"), &fakeAuth{})
	if !m.IsAuthenticated() {
		t.Fatalf("expected hydrated access token")
	}
	if m.Initialized() {
		t.Fatalf("hydration must not mark initialized")
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profile = "Bad Profile"
	if _, err := Open(context.Background(), cfg, NewMemoryStore(), &fakeAuth{}, nil); !errors.Is(err, ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}
