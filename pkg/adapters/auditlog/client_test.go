package auditlog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/metrics"
)

type fakeAuditAPI struct {
	server *httptest.Server

	authCalls atomic.Int32
	logStatus atomic.Int32
	token     string
	authBody  []byte

	mu      sync.Mutex
	entries []Entry
	headers []string
}

func newFakeAuditAPI(t *testing.T, token string) *fakeAuditAPI {
	api := &fakeAuditAPI{token: token}
	api.logStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		api.authCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.authBody = body
		api.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token_type":   "Bearer",
			"access_token": api.token,
		})
	})
	mux.HandleFunc("POST /logs", func(w http.ResponseWriter, r *http.Request) {
		var entry Entry
		_ = json.NewDecoder(r.Body).Decode(&entry)
		api.mu.Lock()
		api.entries = append(api.entries, entry)
		api.headers = append(api.headers, r.Header.Get("Authorization"))
		api.mu.Unlock()
		w.WriteHeader(int(api.logStatus.Load()))
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAuditAPI) received() ([]Entry, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry(nil), a.entries...), append([]string(nil), a.headers...)
}

func signedToken(t *testing.T, expires time.Time) string {
	claims := &jwt.RegisteredClaims{
		Subject:   "shortlink",
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestClient(api *fakeAuditAPI, queueSize int) (*Client, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	c := NewClient(Config{
		AuthURL: api.server.URL + "/auth",
		LogURL:  api.server.URL + "/logs",
		Credentials: Credentials{
			Email:    "dev@example.com",
			ClientID: "client-1",
		},
		Timeout:   time.Second,
		QueueSize: queueSize,
	}, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, m
}

func TestClient_DeliversWithCachedToken(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	api := newFakeAuditAPI(t, token)
	client, m := newTestClient(api, 16)

	require.NoError(t, client.Log(StackBackend, "info", "route", "Short URL created: abc"))
	require.NoError(t, client.Log(StackBackend, "warn", "service", "Short URL expired: abc"))
	require.NoError(t, client.Log(StackFrontend, "error", "page", "render failed"))

	require.NoError(t, client.Close(context.Background()))

	entries, headers := api.received()
	require.Len(t, entries, 3)
	assert.Equal(t, "Short URL created: abc", entries[0].Message)
	assert.Equal(t, StackFrontend, entries[2].Stack)
	for _, h := range headers {
		assert.Equal(t, "Bearer "+token, h)
	}

	assert.EqualValues(t, 1, api.authCalls.Load(), "token should be fetched once and reused")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues(metrics.AuditSent)))

	api.mu.Lock()
	authBody := api.authBody
	api.mu.Unlock()
	var creds Credentials
	require.NoError(t, json.Unmarshal(authBody, &creds))
	assert.Equal(t, "client-1", creds.ClientID)
}

func TestClient_RefreshesExpiredToken(t *testing.T) {
	// Expires inside the early-refresh window, so every use refetches.
	api := newFakeAuditAPI(t, signedToken(t, time.Now().Add(10*time.Second)))
	client, _ := newTestClient(api, 16)

	require.NoError(t, client.Log(StackBackend, "info", "route", "one"))
	require.NoError(t, client.Log(StackBackend, "info", "route", "two"))
	require.NoError(t, client.Close(context.Background()))

	assert.EqualValues(t, 2, api.authCalls.Load())
}

func TestClient_InvalidEntryIsRejected(t *testing.T) {
	api := newFakeAuditAPI(t, signedToken(t, time.Now().Add(time.Hour)))
	client, _ := newTestClient(api, 16)
	defer client.Close(context.Background())

	err := client.Log(StackBackend, "info", "component", "wrong stack for package")
	assert.ErrorIs(t, err, ErrInvalidPackage)
}

func TestClient_DeliveryFailuresAreSwallowed(t *testing.T) {
	api := newFakeAuditAPI(t, signedToken(t, time.Now().Add(time.Hour)))
	api.logStatus.Store(http.StatusInternalServerError)
	client, m := newTestClient(api, 16)

	assert.NoError(t, client.Log(StackBackend, "error", "handler", "boom"))
	require.NoError(t, client.Close(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues(metrics.AuditFailed)))
}

func TestClient_UnreachableAuthIsSwallowed(t *testing.T) {
	api := newFakeAuditAPI(t, "unused")
	client, m := newTestClient(api, 16)
	api.server.Close()

	assert.NoError(t, client.Log(StackBackend, "info", "route", "nobody listening"))
	require.NoError(t, client.Close(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues(metrics.AuditFailed)))
}

func TestClient_LogAfterCloseDrops(t *testing.T) {
	api := newFakeAuditAPI(t, signedToken(t, time.Now().Add(time.Hour)))
	client, m := newTestClient(api, 16)
	require.NoError(t, client.Close(context.Background()))

	assert.NoError(t, client.Log(StackBackend, "info", "route", "late"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues(metrics.AuditDropped)))
}

func TestTokenSource_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &tokenSource{fallback: 10 * time.Minute, now: func() time.Time { return now }}

	jwtExp := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	assert.True(t, jwtExp.Equal(src.expiry(signedToken(t, jwtExp), 0)))

	assert.Equal(t, now.Add(300*time.Second), src.expiry("opaque", 300))
	assert.Equal(t, time.Unix(1_900_000_000, 0), src.expiry("opaque", 1_900_000_000))
	assert.Equal(t, now.Add(10*time.Minute), src.expiry("opaque", 0))
}

func TestClient_ConcurrentLogAndCloseLosesNothing(t *testing.T) {
	api := newFakeAuditAPI(t, signedToken(t, time.Now().Add(time.Hour)))
	client, m := newTestClient(api, 1024)

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < perWriter; i++ {
				_ = client.Log(StackBackend, "info", "service", "entry")
			}
		}()
	}

	close(start)
	require.NoError(t, client.Close(context.Background()))
	wg.Wait()

	sent := testutil.ToFloat64(m.AuditEvents.WithLabelValues(metrics.AuditSent))
	failed := testutil.ToFloat64(m.AuditEvents.WithLabelValues(metrics.AuditFailed))
	dropped := testutil.ToFloat64(m.AuditEvents.WithLabelValues(metrics.AuditDropped))
	assert.Equal(t, float64(writers*perWriter), sent+failed+dropped, "every entry is either delivered or counted as dropped")

	entries, _ := api.received()
	assert.Len(t, entries, int(sent))
}
