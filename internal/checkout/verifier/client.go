package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/obinna-o/go_marketgate/internal/checkout/domain"
)

// Client queries the backend payment-verification endpoint for the final
// status of one payment attempt. The endpoint is idempotent per reference;
// retrying is the caller's decision, not the client's.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// outer deadline comes from the orchestrator's context
		client: &http.Client{Timeout: 35 * time.Second},
	}
}

type backendError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) Verify(ctx context.Context, reference string) (*domain.VerificationResult, error) {
	u := fmt.Sprintf("%s/api/orders/verify?reference=%s", c.baseURL, url.QueryEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("verification failed: %s", backendMessage(body, resp.StatusCode))
	}

	var out domain.VerificationResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode verification response: %w", err)
	}

	return &out, nil
}

// backendMessage surfaces the backend's own message when the error body is
// decodable, with a generic fallback otherwise.
func backendMessage(body []byte, status int) string {
	var be backendError
	if err := json.Unmarshal(body, &be); err == nil {
		if msg := strings.TrimSpace(be.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(be.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("payment status fetch returned status %d", status)
}
