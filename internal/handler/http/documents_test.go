package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/remote"
	"github.com/MKhiriev/envelope-sync/models"
)

func bytesReader(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestDocumentAPI_PingAndVersion(t *testing.T) {
	srv, _ := newTestDocumentServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", readBody(t, resp))
	assert.NotEmpty(t, resp.Header.Get(traceIDHeader))

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/version", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.2.3", readBody(t, resp))
}

func TestDocumentAPI_Authorization(t *testing.T) {
	srv, services := newTestDocumentServer(t)
	url := srv.URL + "/api/budgets/household/documents/manifest"

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "token for another budget", header: "Bearer " + tokenFor(t, services, "neighbours"), wantStatus: http.StatusForbidden},
		{name: "token for this budget", header: "Bearer " + tokenFor(t, services, "household"), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.header != "" {
				headers = []string{"Authorization", tt.header}
			}
			resp := doRequest(t, http.MethodGet, url, "", nil, headers...)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestDocumentAPI_DocumentLifecycle(t *testing.T) {
	srv, services := newTestDocumentServer(t)
	token := tokenFor(t, services, "household")
	base := srv.URL + "/api/budgets/household/documents"

	resp := doRequest(t, http.MethodPut, base+"/chunks/envelopes/0", token, []byte("sealed-0"))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doRequest(t, http.MethodPut, base+"/manifest", token, []byte("sealed-manifest"))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, base+"/chunks/envelopes/0", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "sealed-0", readBody(t, resp))

	resp = doRequest(t, http.MethodGet, base+"?prefix=chunks/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list models.DocumentList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, []string{"chunks/envelopes/0"}, list.Paths)

	resp = doRequest(t, http.MethodDelete, base+"/manifest", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doRequest(t, http.MethodDelete, base+"/manifest", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "deleting a missing document is not an error")

	resp = doRequest(t, http.MethodGet, base+"/manifest", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocumentAPI_RejectsBadPathsAndMethods(t *testing.T) {
	srv, services := newTestDocumentServer(t)
	token := tokenFor(t, services, "household")
	base := srv.URL + "/api/budgets/household/documents"

	resp := doRequest(t, http.MethodPut, base+"/chunks/..%2F..%2Fetc", token, []byte("x"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPatch, base+"/manifest", token, []byte("x"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/ping", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocumentAPI_TooLarge(t *testing.T) {
	srv, services := newTestDocumentServer(t)
	token := tokenFor(t, services, "household")

	defer func(limit int64) { maxDocumentSize = limit }(maxDocumentSize)
	maxDocumentSize = 16

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/budgets/household/documents/manifest", token, bytes.Repeat([]byte{1}, 17))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestDocumentAPI_GzipOnlyForJSON(t *testing.T) {
	srv, services := newTestDocumentServer(t)
	token := tokenFor(t, services, "household")
	base := srv.URL + "/api/budgets/household/documents"

	require.Equal(t, http.StatusNoContent, doRequest(t, http.MethodPut, base+"/manifest", token, []byte("sealed")).StatusCode)

	resp := doRequest(t, http.MethodGet, base, token, nil, "Accept-Encoding", "gzip")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	var list models.DocumentList
	require.NoError(t, json.NewDecoder(zr).Decode(&list))
	assert.Equal(t, []string{"manifest"}, list.Paths)

	resp = doRequest(t, http.MethodGet, base+"/manifest", token, nil, "Accept-Encoding", "gzip")
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	assert.Equal(t, "sealed", readBody(t, resp))
}

// The client-side HTTP document store speaks the same API.
func TestDocumentAPI_HTTPStoreClient(t *testing.T) {
	srv, services := newTestDocumentServer(t)
	ctx := context.Background()

	client, err := remote.NewHTTPStore(config.ClientRemote{
		HTTPAddress:    srv.URL,
		Token:          tokenFor(t, services, "household"),
		RequestTimeout: 2 * time.Second,
	}, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Put(ctx, "household", "chunks/bills/0", []byte("b0")))
	require.NoError(t, client.Put(ctx, "household", "chunks/bills/1", []byte("b1")))

	body, err := client.Get(ctx, "household", "chunks/bills/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("b1"), body)

	paths, err := client.List(ctx, "household", "chunks/bills/")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunks/bills/0", "chunks/bills/1"}, paths)

	require.NoError(t, client.Delete(ctx, "household", "chunks/bills/0"))
	_, err = client.Get(ctx, "household", "chunks/bills/0")
	assert.ErrorIs(t, err, remote.ErrDocumentNotFound)

	_, err = client.Get(ctx, "neighbours", "manifest")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "forbidden"), err.Error())
}
