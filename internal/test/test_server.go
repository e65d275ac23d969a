package test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/api/router"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/wallet/store"
)

// Config returns a server config backed by an in-memory sqlite database and a temporary
// keystore directory. The reconciler is disabled; tests drive it with RunOnce.
func Config(t *testing.T) config.Server {
	t.Helper()

	cfg := config.ServiceConfigFromEnviron(nil)
	cfg.Database.Driver = store.DriverSQLite
	cfg.Database.DSN = ":memory:"
	cfg.Database.AutoMigrate = true
	cfg.Logger.Level = zerolog.WarnLevel
	cfg.Management.ListenAddress = "127.0.0.1:0"
	cfg.Reconciler.Enabled = false
	cfg.Keystore.Dir = t.TempDir()
	cfg.Chains.Enabled = nil
	cfg.Nodes = map[string]string{}
	cfg.NodeHeaders = map[string]string{}

	return cfg
}

// WithTestServer runs closure against a fully initialized server.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, Config(t), closure)
}

func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	ctx := context.Background()

	s, err := api.InitNewServer(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	router.Init(s)

	closure(s)

	// disallow any further refs to managed object after running the test
	t.Cleanup(func() {
		_ = s.Shutdown(ctx)
	})
}

// PerformRequest serves one request through the server's echo instance.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body io.Reader, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header[k] = v
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}
