// Package identity calls the upstream identity-verify endpoint used by the
// authorization server's login form to turn a submitted upstream credential
// into a User record.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// VerifiedUser is the subset of the identity-verify response the gateway
// consumes.
type VerifiedUser struct {
	Email            string `json:"email"`
	Name             string `json:"name"`
	SubscriptionType string `json:"subscriptionType"`
}

// Client calls GET <baseURL>?api_token=<credential> and decodes the result.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client bound to baseURL with a 10-second timeout per the
// concurrency model's identity-verify bound.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Verify exchanges credential for the upstream identity. Any of a network
// failure, non-200 status, non-JSON body, or a missing email is reported as
// an error; the /login handler converts each into the same 303-with-error
// redirect.
func (c *Client) Verify(ctx context.Context, credential string) (VerifiedUser, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return VerifiedUser{}, fmt.Errorf("identity: invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("api_token", credential)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return VerifiedUser{}, fmt.Errorf("identity: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return VerifiedUser{}, fmt.Errorf("identity: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifiedUser{}, fmt.Errorf("identity: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifiedUser{}, fmt.Errorf("identity: read response: %w", err)
	}

	var out VerifiedUser
	if err := json.Unmarshal(body, &out); err != nil {
		return VerifiedUser{}, fmt.Errorf("identity: response is not valid JSON: %w", err)
	}
	if out.Email == "" {
		return VerifiedUser{}, fmt.Errorf("identity: response is missing email")
	}

	return out, nil
}
