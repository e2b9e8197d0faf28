package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// VerifyClient queries the backend for the final status of one subscription
// payment. Unlike order verification, the backend answers with a plain
// success flag.
type VerifyClient struct {
	baseURL string
	client  *http.Client
}

func NewVerifyClient(baseURL string) *VerifyClient {
	return &VerifyClient{
		baseURL: baseURL,
		// outer deadline comes from the orchestrator's context
		client: &http.Client{Timeout: 35 * time.Second},
	}
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *VerifyClient) Verify(ctx context.Context, reference string) (bool, error) {
	u := fmt.Sprintf("%s/api/subscriptions/verify?reference=%s", c.baseURL, url.QueryEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify subscription payment: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("verification failed: %s", verifyMessage(body, resp.StatusCode))
	}

	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return false, fmt.Errorf("decode verification response: %w", err)
	}
	return out.Success, nil
}

func verifyMessage(body []byte, status int) string {
	var vr verifyResponse
	if err := json.Unmarshal(body, &vr); err == nil {
		if msg := strings.TrimSpace(vr.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(vr.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("payment status fetch returned status %d", status)
}
