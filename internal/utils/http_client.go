package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly,
// while allowing extension with additional application-specific behavior.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates and returns a new HTTPClient instance
// with a default-configured underlying resty.Client.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}

// WithRetries retries requests that failed before reaching the server
// (connection refused, reset). HTTP error statuses are never retried: a push
// rejected with 409 must surface as a conflict, not be replayed.
func (c *HTTPClient) WithRetries(count int, wait time.Duration) *HTTPClient {
	c.SetRetryCount(count).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(4 * wait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil && (resp == nil || resp.StatusCode() == 0)
		})
	return c
}
