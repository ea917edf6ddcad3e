//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"money-manager/internal/config"
	"money-manager/internal/database"
	"money-manager/internal/event"
	"money-manager/internal/handler"
	"money-manager/internal/mail"
	"money-manager/internal/middleware"
	"money-manager/internal/repository"
	"money-manager/internal/router"
	"money-manager/internal/service"
)

var tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

// outbox records sent mail so tests can follow the links in it.
type outbox struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

// lastToken returns the token from the most recent mail sent to addr.
func (o *outbox) lastToken(t *testing.T, addr string) string {
	t.Helper()

	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].To != addr {
			continue
		}
		match := tokenPattern.FindStringSubmatch(o.messages[i].HTMLBody)
		require.Len(t, match, 2, "no token link in mail to %s", addr)
		return match[1]
	}
	t.Fatalf("no mail sent to %s", addr)
	return ""
}

type testServer struct {
	*httptest.Server
	outbox *outbox
	db     *database.DB
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 5, 1)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	pool := db.Pool
	users := repository.NewUserRepository(pool)
	categories := repository.NewCategoryRepository(pool)
	transactions := repository.NewTransactionRepository(pool)
	audit := repository.NewAuditRepository(pool)

	box := &outbox{}
	bus := event.NewBus()
	ledger := service.NewVerificationLedger(repository.NewTokenRepository(pool), time.Hour, time.Hour)
	authService := service.NewAuthService(users, categories, ledger, service.NewTokenCodec("integration-secret", time.Hour), box, bus, "http://app.test")
	reports := service.NewReportService(users, transactions)
	auditService := service.NewAuditService(audit)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	go auditService.Consume(consumerCtx, bus)

	cfg := &config.Config{
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}

	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Category:    handler.NewCategoryHandler(service.NewCategoryService(categories)),
		Transaction: handler.NewTransactionHandler(service.NewTransactionService(transactions, categories), reports),
		User: handler.NewUserHandler(
			service.NewProfileService(users, box, bus),
			service.NewInsightsService(transactions),
			reports,
		),
		Admin: handler.NewAdminHandler(service.NewAdminService(users, transactions, bus), reports),
		Audit: handler.NewAuditHandler(auditService),
	}, db.Health))

	t.Cleanup(func() {
		server.Close()
		stopConsumer()
		_, _ = pool.Exec(ctx, `TRUNCATE audit_entries, transactions, categories, verification_tokens, users CASCADE`)
		db.Close()
	})

	return &testServer{Server: server, outbox: box, db: db}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call sends a JSON request and returns the status and the decoded envelope.
// Non-JSON bodies come back in raw.
func (s *testServer) call(t *testing.T, method string, path string, payload any, token string) (int, envelope, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env, raw
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// signUp registers and verifies an account and returns its access token.
func (s *testServer) signUp(t *testing.T, username string) string {
	t.Helper()

	email := username + "@example.com"
	status, _, raw := s.call(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username, "email": email, "password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, _, raw = s.call(t, http.MethodGet, "/api/v1/auth/verify-email?token="+s.outbox.lastToken(t, email), nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))

	status, env, raw := s.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username, "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, status, string(raw))

	return decode[struct {
		Token string `json:"token"`
	}](t, env).Token
}
