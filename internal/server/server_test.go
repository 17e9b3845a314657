package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"faishion-storefront/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.FromViper(viper.New())
	cfg.JWT.Secret = testSecret
	cfg.Server.Env = "production"
	return cfg
}

func bearer(t *testing.T, roles ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "tester",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestNewServer_RejectsUnusableStore(t *testing.T) {
	cases := map[string]string{
		"unknown driver":       "cassandra",
		"redis without client": config.StoreRedis,
		"postgres without db":  config.StorePostgres,
	}
	for name, driver := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.ViewState.Driver = driver
			_, err := NewServer(cfg, zap.NewNop(), nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestServer_HealthAndMetricsAccess(t *testing.T) {
	srv, err := NewServer(testConfig(t), zap.NewNop(), nil, nil)
	require.NoError(t, err)

	cases := []struct {
		name string
		path string
		auth string
		want int
	}{
		{"health is public", "/health", "", http.StatusOK},
		{"metrics needs a token", "/metrics", "", http.StatusUnauthorized},
		{"metrics needs admin", "/metrics", bearer(t, "SELLER"), http.StatusForbidden},
		{"admin reads metrics", "/metrics", bearer(t, "ADMIN"), http.StatusOK},
		{"panel needs a token", "/api/products/1/panel", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestServer_MetricsExposeRequestCounters(t *testing.T) {
	srv, err := NewServer(testConfig(t), zap.NewNop(), nil, nil)
	require.NoError(t, err)

	srv.Handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", bearer(t, "ADMIN"))
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestServer_RedisStoreAndHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig(t)
	cfg.ViewState.Driver = config.StoreRedis
	srv, err := NewServer(cfg, zap.NewNop(), nil, client)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":{"status":"up"}`)

	mr.Close()
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_RunJanitorWithoutPurgerReturns(t *testing.T) {
	srv, err := NewServer(testConfig(t), zap.NewNop(), nil, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		srv.RunJanitor(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor should return at once for the memory store")
	}
}

type fakePurger struct {
	calls atomic.Int32
	err   error
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return 3, f.err
}

func TestRunPurgeLoop_PurgesUntilCanceled(t *testing.T) {
	purger := &fakePurger{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		runPurgeLoop(ctx, purger, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool { return purger.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRunPurgeLoop_SurvivesErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runPurgeLoop(ctx, purger, 5*time.Millisecond, zap.NewNop())
	require.Eventually(t, func() bool { return purger.calls.Load() >= 2 }, time.Second, time.Millisecond)
}
