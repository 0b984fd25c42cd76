package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/utils"
	"github.com/MKhiriev/envelope-sync/models"
)

const (
	breakerName = "document-api"

	documentsRoute = "/api/budgets/{budgetID}/documents"
	pingRoute      = "/api/ping"
)

// HTTPStore is the [DocumentStore] backed by the document server's HTTP API.
//
// Every request carries the configured bearer token. Requests run through a
// circuit breaker that opens after repeated transport failures or 5xx
// answers, so an offline client fails fast instead of waiting for timeouts.
type HTTPStore struct {
	client  *utils.HTTPClient
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	token   string

	logger *logger.Logger
}

// NewHTTPStore constructs an [HTTPStore] for remoteCfg.HTTPAddress.
//
// Returns an error if the address is empty or cannot be parsed as a URL.
func NewHTTPStore(remoteCfg config.ClientRemote, log *logger.Logger) (*HTTPStore, error) {
	baseURL, err := normalizeBaseURL(remoteCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid remote http address: %w", err)
	}

	timeout := remoteCfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	client := utils.NewHTTPClient()
	client.
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &HTTPStore{
		client:  client,
		breaker: newBreaker(log),
		token:   strings.TrimSpace(remoteCfg.Token),
		logger:  log,
	}, nil
}

func newBreaker(log *logger.Logger) *gobreaker.CircuitBreaker[*resty.Response] {
	return gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("func", "HTTPStore.breaker").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *HTTPStore) Get(ctx context.Context, budgetID, path string) ([]byte, error) {
	if err := checkAddress(budgetID, path); err != nil {
		return nil, err
	}

	resp, err := h.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.Get(documentsRoute + "/" + escapePath(path))
	}, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, fmt.Errorf("get document %s: %w", path, err)
	}

	return resp.Body(), nil
}

func (h *HTTPStore) Put(ctx context.Context, budgetID, path string, body []byte) error {
	if err := checkAddress(budgetID, path); err != nil {
		return err
	}

	resp, err := h.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Content-Type", "application/octet-stream").
			SetBody(body).
			Put(documentsRoute + "/" + escapePath(path))
	}, budgetID)
	if err != nil {
		return fmt.Errorf("put document %s: %w", path, err)
	}

	return mapHTTPError(resp)
}

func (h *HTTPStore) Delete(ctx context.Context, budgetID, path string) error {
	if err := checkAddress(budgetID, path); err != nil {
		return err
	}

	resp, err := h.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.Delete(documentsRoute + "/" + escapePath(path))
	}, budgetID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}

	if err = mapHTTPError(resp); err != nil && !errors.Is(err, ErrDocumentNotFound) {
		return err
	}
	return nil
}

func (h *HTTPStore) List(ctx context.Context, budgetID, prefix string) ([]string, error) {
	if budgetID == "" {
		return nil, ErrEmptyBudgetID
	}

	var list models.DocumentList
	resp, err := h.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetQueryParam("prefix", prefix).
			SetResult(&list).
			Get(documentsRoute)
	}, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	if list.Paths == nil {
		list.Paths = []string{}
	}
	return list.Paths, nil
}

func (h *HTTPStore) Ping(ctx context.Context) error {
	resp, err := h.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.Get(pingRoute)
	}, "")
	if err != nil {
		return fmt.Errorf("ping document server: %w", err)
	}

	return mapHTTPError(resp)
}

// do executes one request through the breaker. Transport errors and 5xx
// answers count as breaker failures; other statuses are returned for
// mapping by the caller.
func (h *HTTPStore) do(ctx context.Context, send func(req *resty.Request) (*resty.Response, error), budgetID string) (*resty.Response, error) {
	resp, err := h.breaker.Execute(func() (*resty.Response, error) {
		req := h.client.R().SetContext(ctx)
		if budgetID != "" {
			req.SetPathParam("budgetID", budgetID)
		}
		if h.token != "" {
			req.SetAuthToken(h.token)
		}

		resp, err := send(req)
		if err != nil {
			return nil, fmt.Errorf("network request failed: %w", err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, mapHTTPError(resp)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			h.logger.Warn().Err(err).Str("func", "HTTPStore.do").Msg("request rejected by circuit breaker")
		}
		return nil, err
	}

	return resp, nil
}

// escapePath escapes each segment of a document path but keeps the slashes.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
