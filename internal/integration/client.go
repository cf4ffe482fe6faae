package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProviderClient pushes payloads to an accounting provider.
type ProviderClient interface {
	PushInvoice(ctx context.Context, provider Provider, accessToken string, payload any) error
	PushCustomer(ctx context.Context, provider Provider, accessToken string, payload any) error
}

// HTTPClient is the production ProviderClient. Every call carries a bearer
// token and runs under a per-call timeout.
type HTTPClient struct {
	client   *http.Client
	baseURLs map[Provider]string
}

// NewHTTPClient builds the client. baseURLs maps providers to API roots;
// timeout bounds each outbound call.
func NewHTTPClient(baseURLs map[Provider]string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		client:   &http.Client{Timeout: timeout},
		baseURLs: baseURLs,
	}
}

func (c *HTTPClient) PushInvoice(ctx context.Context, provider Provider, accessToken string, payload any) error {
	return c.push(ctx, provider, accessToken, "/invoices", payload)
}

func (c *HTTPClient) PushCustomer(ctx context.Context, provider Provider, accessToken string, payload any) error {
	return c.push(ctx, provider, accessToken, "/customers", payload)
}

func (c *HTTPClient) push(ctx context.Context, provider Provider, accessToken, path string, payload any) error {
	base, ok := c.baseURLs[provider]
	if !ok {
		return fmt.Errorf("integration: no base URL configured for %s", provider)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("integration: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("integration: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("integration: %s call: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("integration: %s returned %d: %s", provider, resp.StatusCode, snippet)
	}
	return nil
}
