package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omarshaarawi/pickem/internal/config"
)

// TokenSource supplies the bearer credential attached to every request. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(cfg config.PickemAPI) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// APIError is a non-2xx response. Detail carries the backend's {"detail": "..."} message
// when one was sent.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("pickem api: %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("pickem api: unexpected status code: %d", e.Status)
}

// DetailOr returns the backend message carried by err, or fallback when there is none.
func DetailOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) Get(ctx context.Context, token TokenSource, endpoint string, params map[string]string, result interface{}) error {
	return c.do(ctx, token, http.MethodGet, endpoint, params, nil, result)
}

func (c *Client) Post(ctx context.Context, token TokenSource, endpoint string, body, result interface{}) error {
	return c.do(ctx, token, http.MethodPost, endpoint, nil, body, result)
}

func (c *Client) do(ctx context.Context, token TokenSource, method, endpoint string, params map[string]string, body, result interface{}) error {
	u := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	if len(params) > 0 {
		q := url.Values{}
		for key, value := range params {
			q.Set(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthorization(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	return nil
}

func (c *Client) setAuthorization(req *http.Request, token TokenSource) {
	if token == nil {
		return
	}
	if t := token.AccessToken(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apiErr
	}

	// Validation failures send a list of field errors instead of a string.
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Detail = detail
	}
	return apiErr
}
