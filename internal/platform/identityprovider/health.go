// Package identityprovider checks the readiness of the token-issuing identity provider
package identityprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 2 * time.Second

// Status is the outcome of one readiness probe
type Status struct {
	Healthy bool
	Message string
}

// HealthChecker probes the identity provider's readiness endpoint
type HealthChecker struct {
	url    string
	client *http.Client
}

// NewHealthChecker creates a checker for url. A nil client gets a traced
// client with the given timeout.
func NewHealthChecker(url string, timeout time.Duration, client *http.Client) *HealthChecker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = NewHTTPClient(timeout)
	}
	return &HealthChecker{url: url, client: client}
}

// NewHTTPClient returns an http.Client whose requests are traced
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Check reports healthy only for a 2xx answer. Transport failures and any
// other status are reported as unhealthy, never as an error.
func (c *HealthChecker) Check(ctx context.Context) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			status = Status{Message: fmt.Sprintf("identity provider check failed: %v", r)}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Status{Message: fmt.Sprintf("invalid identity provider health URL: %v", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Status{Message: fmt.Sprintf("identity provider unreachable: %v", err)}
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Status{Message: fmt.Sprintf("identity provider is not ready: status %d", resp.StatusCode)}
	}
	return Status{Healthy: true, Message: "identity provider is ready"}
}
