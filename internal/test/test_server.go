package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github/chapool/go-sweeper/internal/api"
	"github/chapool/go-sweeper/internal/api/router"
	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/ledger/memory"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// WithTestServer runs closure against a fully initialized server backed by an
// empty in-memory ledger. Use MemoryLedger to seed balances.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultConfig(t), closure)
}

// WithTestServerConfigurable is WithTestServer with a custom configuration.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServer(cfg)
	require.NoError(t, err, "failed to initialize server")

	require.NoError(t, router.Init(s), "failed to initialize router")

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.Empty(t, s.Shutdown(ctx), "failed to shutdown server")
}

// DefaultConfig returns the configuration used by WithTestServer.
func DefaultConfig(t *testing.T) config.Server {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Ledger.Driver = config.LedgerDriverMemory
	cfg.Ledger.FixtureFile = ""

	return cfg
}

// MemoryLedger returns the in-memory ledger of a test server.
func MemoryLedger(t *testing.T, s *api.Server) *memory.Ledger {
	t.Helper()

	ledger, ok := s.Ledger.(*memory.Ledger)
	require.True(t, ok, "server is not backed by the in-memory ledger")

	return ledger
}

// PerformRequest sends body as JSON through the server's echo instance.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = &bytes.Buffer{}
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil && req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseAndValidate decodes the JSON response into v.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}
