package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/logger"
)

const (
	DefaultUserAgent   = "web:trippit:v1.0.0 (by /u/trippit-app)"
	defaultHTTPTimeout = 10 * time.Second

	// Reddit answers errors with short bodies, keep only the head for logs
	maxErrorBodySize = 1 << 10
)

// Reddit OAuth and API locations
type Endpoints struct {
	AuthURL  string
	TokenURL string
	APIURL   string
}

var DefaultEndpoints = Endpoints{
	AuthURL:  "https://www.reddit.com/api/v1/authorize",
	TokenURL: "https://www.reddit.com/api/v1/access_token",
	APIURL:   "https://oauth.reddit.com",
}

// Token endpoint wants client id/secret as HTTP Basic auth
func (e Endpoints) OAuth2() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   e.AuthURL,
		TokenURL:  e.TokenURL,
		AuthStyle: oauth2.AuthStyleInHeader,
	}
}

// Reddit rejects requests with default Go User-Agent, so every request is stamped
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(r)
}

// HTTP client identifying itself with the application User-Agent
func NewHTTPClient(userAgent string) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &http.Client{
		Timeout:   defaultHTTPTimeout,
		Transport: &userAgentTransport{agent: userAgent, base: http.DefaultTransport},
	}
}

type SubmitParams struct {
	Subreddit string
	Title     string
	Text      string
}

// Bearer-authenticated calls to oauth.reddit.com
type Client struct {
	apiURL string
	client *http.Client
	logger logger.Logger
}

func NewClient(apiURL string, httpClient *http.Client, l logger.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultEndpoints.APIURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient("")
	}

	return &Client{
		apiURL: apiURL,
		client: httpClient,
		logger: l,
	}
}

type submitResponse struct {
	JSON struct {
		// Each error is [code, message, field]
		Errors [][]any `json:"errors"`
		Data   struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

// Submit self post. Returns URL of the created post, empty if Reddit did not send it
func (c *Client) Submit(ctx context.Context, accessToken string, p SubmitParams) (string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for _, field := range [][2]string{
		{"api_type", "json"},
		{"kind", "self"},
		{"sr", p.Subreddit},
		{"title", p.Title},
		{"text", p.Text},
	} {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return "", fmt.Errorf("failed to build submit form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build submit form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/submit", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &apperrors.PublishError{Reason: fmt.Sprintf("failed to send request: %v", err)}
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		head, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		c.logger.Warn("Reddit rejected submission", "status_code", resp.StatusCode, "body", string(head))
		return "", &apperrors.PublishError{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		// 2xx means the post is most likely created; caller falls back to the subreddit url
		c.logger.Warn("Reddit accepted submission with unreadable body", "status_code", resp.StatusCode, "error", err)
		return "", nil
	}

	if len(sr.JSON.Errors) > 0 {
		return "", &apperrors.PublishError{StatusCode: resp.StatusCode, Reason: errorMessage(sr.JSON.Errors[0])}
	}

	return sr.JSON.Data.URL, nil
}

// Prefer human message, fall back to the error code
func errorMessage(e []any) string {
	for _, i := range []int{1, 0} {
		if i < len(e) {
			if s, ok := e[i].(string); ok && s != "" {
				return s
			}
		}
	}
	return "unknown reddit error"
}

// Name of the user the token belongs to
func (c *Client) Me(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/api/v1/me", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from profile endpoint", resp.StatusCode)
	}

	var profile struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode profile: %w", err)
	}
	if profile.Name == "" {
		return "", fmt.Errorf("profile response has no name")
	}

	return profile.Name, nil
}
