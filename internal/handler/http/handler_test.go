package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/internal/service"
	"github.com/MKhiriev/envelope-sync/models"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

var testServerConfig = config.ServerConfig{
	App: config.ServerApp{
		TokenSignKey:  "docserver-test-sign-key",
		TokenIssuer:   "envelope-sync",
		TokenDuration: time.Hour,
	},
}

// newTestDocumentServer serves the document API from memory.
func newTestDocumentServer(t *testing.T) (*httptest.Server, *service.ServerServices) {
	t.Helper()

	services, err := service.NewServerServices(
		remote.NewMemoryStore(),
		models.NewAppBuildInfo("1.2.3", "2026-06-01", "abc"),
		testServerConfig,
		logger.Nop(),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(services, logger.Nop()).Init())
	t.Cleanup(srv.Close)
	return srv, services
}

func tokenFor(t *testing.T, services *service.ServerServices, budgetID string) string {
	t.Helper()
	token, err := services.Tokens.CreateToken(context.Background(), budgetID)
	require.NoError(t, err)
	return token.SignedString
}

func doRequest(t *testing.T, method, url, token string, body []byte, headers ...string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, bytesReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	// the default transport would transparently decode gzip
	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
