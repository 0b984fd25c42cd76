package utils

import (
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a resty client that encodes and decodes JSON bodies
// with goccy/go-json. Each call returns an independent client with its own
// connection pool.
//
//	client := utils.NewHTTPClient()
//	resp, err := client.R().SetResult(&out).Get("https://api.example.com/budgets")
func NewHTTPClient() *HTTPClient {
	client := resty.New().
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &HTTPClient{Client: client}
}
