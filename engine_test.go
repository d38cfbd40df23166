package goRedeem

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	testEmail    = "cashier@shop.test"
	testPassword = "secret"
)

type identityStub struct {
	calls atomic.Int64
	exp   time.Time
}

func (s *identityStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	var body struct {
		Email             string `json:"email"`
		Password          string `json:"password"`
		ReturnSecureToken bool   `json:"returnSecureToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch {
	case body.Email == "gone@shop.test":
		writeProviderError(w, "EMAIL_NOT_FOUND")
		return
	case body.Password != testPassword:
		writeProviderError(w, "INVALID_PASSWORD")
		return
	}

	token, _ := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub":   "uid-1",
		"email": body.Email,
		"exp":   s.exp.Unix(),
	}).SignedString([]byte("test-secret"))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"localId":      "uid-1",
		"email":        body.Email,
		"displayName":  "",
		"idToken":      token,
		"refreshToken": "refresh-1",
		"expiresIn":    "3600",
		"registered":   true,
	})
}

func writeProviderError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = io.WriteString(w, `{"error":{"code":400,"message":"`+code+`"}}`)
}

type ledgerStub struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
	status   int
	reply    string
}

func (s *ledgerStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.bodies = append(s.bodies, body)
	status, reply := s.status, s.reply
	s.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

type engineFixture struct {
	engine   *Engine
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	identity *identityStub
	ledger   *ledgerStub
	sink     *ChannelSink
	now      time.Time
}

func testConfig(authURL, apiURL string) Config {
	cfg := DefaultConfig()
	cfg.Identity.AuthURL = authURL
	cfg.API.BaseURL = apiURL
	cfg.Merchant = MerchantConfig{MerchantID: "m-1", LocationID: "l-1", PosID: "pos-1"}
	cfg.Credentials.RedisPrefix = "t"
	cfg.Audit.DropIfFull = false
	return cfg
}

func newEngineFixture(t *testing.T, mutate func(*Config)) *engineFixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	now := time.Now()
	id := &identityStub{exp: now.Add(2 * time.Hour)}
	idSrv := httptest.NewServer(id)
	ledger := &ledgerStub{reply: `{"balance":8750}`}
	apiSrv := httptest.NewServer(ledger)

	cfg := testConfig(idSrv.URL, apiSrv.URL)
	if mutate != nil {
		mutate(&cfg)
	}

	sink := NewChannelSink(64)
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		idSrv.Close()
		apiSrv.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &engineFixture{engine: engine, mr: mr, rdb: rdb, identity: id, ledger: ledger, sink: sink, now: now}
}

func (f *engineFixture) storedKeys() []string {
	return f.mr.Keys()
}

func TestBuildRequiresRedisAndValidConfig(t *testing.T) {
	if _, err := New().WithConfig(testConfig("http://id.test", "http://api.test")).Build(); err == nil {
		t.Fatal("expected error without redis")
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig("http://id.test", "http://api.test")
	cfg.Merchant.PosID = ""
	if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	b := New().WithConfig(testConfig("http://id.test", "http://api.test")).WithRedis(rdb)
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestCheckStatusWithoutSession(t *testing.T) {
	f := newEngineFixture(t, nil)
	s := f.engine.Session()

	if s.Status() != StatusUnknown {
		t.Fatalf("expected unknown before first check, got %s", s.Status())
	}
	for i := 0; i < 2; i++ {
		status, err := s.CheckStatus(context.Background())
		if err != nil || status != StatusUnauthenticated {
			t.Fatalf("check %d: expected unauthenticated, got %s %v", i, status, err)
		}
	}
	if _, ok := s.AuthorizationHeader(); ok {
		t.Fatal("no header expected without a session")
	}
}

func TestLoginPersistsAndRestoresSession(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	user, err := f.engine.Session().Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "uid-1" || user.DisplayName != "cashier" || !user.Registered {
		t.Fatalf("unexpected profile %+v", user)
	}
	if got := len(f.storedKeys()); got != 4 {
		t.Fatalf("expected 4 persisted keys, got %d (%v)", got, f.storedKeys())
	}

	header, ok := f.engine.Session().AuthorizationHeader()
	if !ok || !strings.HasPrefix(header, "Bearer ") {
		t.Fatalf("unexpected header %q %v", header, ok)
	}

	restarted, err := New().WithConfig(f.engine.Config()).WithRedis(f.rdb).Build()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	defer restarted.Close()

	for i := 0; i < 2; i++ {
		status, err := restarted.Session().CheckStatus(ctx)
		if err != nil || status != StatusAuthenticated {
			t.Fatalf("check %d after restart: %s %v", i, status, err)
		}
	}
	restored, ok := restarted.Session().User()
	if !ok || restored != user {
		t.Fatalf("restored profile mismatch: %+v vs %+v", restored, user)
	}
	if h, _ := restarted.Session().AuthorizationHeader(); h != header {
		t.Fatal("restored header differs from original")
	}
}

func TestLoginInvalidPasswordKeepsPriorSession(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.Session().Login(ctx, testEmail, "wrong")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if keys := f.storedKeys(); len(keys) != 0 && !onlyRateKeys(keys) {
		t.Fatalf("no credentials should be persisted, got %v", keys)
	}
	if f.engine.Session().Status() == StatusAuthenticated {
		t.Fatal("failed login must not authenticate")
	}

	if _, err := f.engine.Session().Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	before, _ := f.engine.Session().AuthorizationHeader()

	if _, err := f.engine.Session().Login(ctx, testEmail, "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	after, ok := f.engine.Session().AuthorizationHeader()
	if !ok || after != before || f.engine.Session().Status() != StatusAuthenticated {
		t.Fatal("prior session must survive a failed login")
	}
	if status, _ := f.engine.Session().CheckStatus(ctx); status != StatusAuthenticated {
		t.Fatalf("stored session must survive a failed login, got %s", status)
	}
}

func onlyRateKeys(keys []string) bool {
	for _, k := range keys {
		if !strings.HasPrefix(k, "t:login:") {
			return false
		}
	}
	return true
}

func TestLoginProviderCodes(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	if _, err := f.engine.Session().Login(ctx, "gone@shop.test", testPassword); !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("expected ErrEmailNotFound, got %v", err)
	}
	if _, err := f.engine.Session().Login(ctx, "", testPassword); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if got := f.identity.calls.Load(); got != 1 {
		t.Fatalf("empty email must not reach the provider, calls=%d", got)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newEngineFixture(t, func(c *Config) {
		c.Security.MaxLoginAttempts = 2
		c.Security.LoginCooldownDuration = time.Minute
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.engine.Session().Login(ctx, testEmail, "wrong"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if _, err := f.engine.Session().Login(ctx, testEmail, testPassword); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
	if got := f.identity.calls.Load(); got != 2 {
		t.Fatalf("rate-limited attempt must not reach the provider, calls=%d", got)
	}

	f.mr.FastForward(2 * time.Minute)
	if _, err := f.engine.Session().Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login after cooldown: %v", err)
	}
	if got := f.engine.MetricsSnapshot().Counters[MetricLoginRateLimited]; got != 1 {
		t.Fatalf("expected one rate-limited metric, got %d", got)
	}
}

func TestCheckStatusClearsExpiredSession(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	store := credential.NewStore(f.rdb, "t")
	err := store.Save(ctx, &credential.Credentials{
		AccessToken:  "stale",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().UnixMilli() - 1,
		User:         credential.UserProfile{ID: "uid-9", Email: "a@b.test", DisplayName: "a"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	status, err := f.engine.Session().CheckStatus(ctx)
	if err != nil || status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s %v", status, err)
	}
	if keys := f.storedKeys(); len(keys) != 0 {
		t.Fatalf("expired credentials must be cleared, got %v", keys)
	}
	if _, err := store.Load(ctx); !errors.Is(err, credential.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials after clear, got %v", err)
	}
	if got := f.engine.MetricsSnapshot().Counters[MetricSessionExpired]; got != 1 {
		t.Fatalf("expected session expired metric, got %d", got)
	}
}

func TestLogoutIsIdempotentAndClosesGate(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	if err := f.engine.Session().Logout(ctx); err != nil {
		t.Fatalf("logout without session: %v", err)
	}

	if _, err := f.engine.Session().Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	wf, err := f.engine.Gate().Workflow()
	if err != nil || wf == nil {
		t.Fatalf("expected workflow after login: %v", err)
	}

	if err := f.engine.Session().Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := f.engine.Session().Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if len(f.storedKeys()) != 0 {
		t.Fatalf("logout must clear storage, got %v", f.storedKeys())
	}
	if _, err := f.engine.Gate().Workflow(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}
	if _, err := f.engine.Gate().Enter(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected gate closed after logout, got %v", err)
	}
}

func TestLogoutStorageFailure(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	if _, err := f.engine.Session().Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.mr.Close()

	if err := f.engine.Session().Logout(ctx); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if _, ok := f.engine.Session().AuthorizationHeader(); ok {
		t.Fatal("in-memory session must be dropped even when storage fails")
	}
}

func TestGateRedemptionEndToEnd(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	if _, err := f.engine.Gate().Enter(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected gate closed before login, got %v", err)
	}
	if _, err := f.engine.Session().Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	wf, err := f.engine.Gate().Enter(ctx)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	again, _ := f.engine.Gate().Workflow()
	if again != wf {
		t.Fatal("gate must hand out one workflow per session")
	}

	if _, err := wf.SubmitAmount("12.50"); err != nil {
		t.Fatalf("amount: %v", err)
	}
	snap, err := wf.Scanned(ctx, " GC-001 ")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if snap.State.String() != "succeeded" || string(snap.Payload) != `{"balance":8750}` {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	f.ledger.mu.Lock()
	req, body := f.ledger.requests[0], f.ledger.bodies[0]
	f.ledger.mu.Unlock()

	if req.URL.Path != "/GiftCards/GC-001/redeem-by-passkit-member" {
		t.Fatalf("unexpected path %s", req.URL.Path)
	}
	if !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
		t.Fatal("expected bearer token on redemption request")
	}
	if body["amountMinor"] != float64(1250) || body["taxMinor"] != float64(0) || body["posId"] != "pos-1" {
		t.Fatalf("unexpected payload %v", body)
	}
	if rn, _ := body["receiptNumber"].(string); len(rn) != 9 {
		t.Fatalf("expected nine-digit receipt number, got %v", body["receiptNumber"])
	}

	if _, err := wf.Acknowledge(); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	snapshot := f.engine.MetricsSnapshot()
	if snapshot.Counters[MetricRedemptionSuccess] != 1 || snapshot.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("unexpected counters %v", snapshot.Counters)
	}

	f.engine.Close()
	if stats := f.engine.AuditStats(); stats.Delivered != 2 || stats.Dropped != 0 {
		t.Fatalf("unexpected audit stats %+v", stats)
	}
	var types []string
	for len(f.sink.Events()) > 0 {
		ev := <-f.sink.Events()
		types = append(types, ev.EventType)
		if ev.EventType == auditEventRedemptionSuccess && (ev.AttemptID == "" || ev.Metadata["card"] != "****-001") {
			t.Fatalf("unexpected redemption audit event %+v", ev)
		}
	}
	if strings.Join(types, ",") != "login_success,redemption_success" {
		t.Fatalf("unexpected audit trail %v", types)
	}
}

func TestRedemptionFailureSurfacesServerMessage(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()
	f.ledger.status = http.StatusUnprocessableEntity
	f.ledger.reply = `{"message":"INSUFFICIENT_BALANCE"}`

	if _, err := f.engine.Session().Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	wf, err := f.engine.Gate().Workflow()
	if err != nil {
		t.Fatalf("workflow: %v", err)
	}

	_, _ = wf.SubmitAmountMinor(1250)
	snap, err := wf.Scanned(ctx, "GC-001")
	if !errors.Is(err, ErrRedemptionServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if snap.Message != "INSUFFICIENT_BALANCE" {
		t.Fatalf("unexpected message %q", snap.Message)
	}
	if got := f.engine.MetricsSnapshot().Counters[MetricRedemptionFailure]; got != 1 {
		t.Fatalf("expected failure metric, got %d", got)
	}

	snap, err = wf.Retry()
	if err != nil || snap.AmountMinor != 1250 {
		t.Fatalf("retry: %+v %v", snap, err)
	}
}
