// Package client is a Go client for the rentcard HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/render"
)

const (
	CodeExpiredToken    = "EXPIRED_TOKEN"
	CodeAlreadyVerified = "ALREADY_VERIFIED"
	CodeInvalidToken    = "INVALID_TOKEN"
)

const defaultTimeout = 10 * time.Second

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBearerToken sets the access token sent on every request.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type ReferenceInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	TenantName   string `json:"tenantName"`
	IsVerified   bool   `json:"isVerified"`
}

type Submission struct {
	ReferenceID int64  `json:"referenceId"`
	Rating      string `json:"rating"`
	Comments    string `json:"comments"`
}

type SubmitResult struct {
	TenantName string `json:"tenantName"`
}

// ValidateToken issues a single validation request for token.
func (c *Client) ValidateToken(ctx context.Context, token string) (ReferenceInfo, error) {
	const op = "client.ValidateToken"

	var info ReferenceInfo

	if err := c.do(ctx, http.MethodGet, "/api/tenant-references/verify/validate/"+url.PathEscape(token), nil, &info); err != nil {
		return ReferenceInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	return info, nil
}

func (c *Client) SubmitVerification(ctx context.Context, token string, sub Submission) (SubmitResult, error) {
	const op = "client.SubmitVerification"

	var res SubmitResult

	if err := c.do(ctx, http.MethodPost, "/api/tenant-references/verify/submit/"+url.PathEscape(token), sub, &res); err != nil {
		return SubmitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	return render.DecodeJSON(res.Body, out)
}

func decodeError(res *http.Response) *APIError {
	apiErr := &APIError{StatusCode: res.StatusCode}

	var eb errorBody
	if err := render.DecodeJSON(res.Body, &eb); err == nil {
		apiErr.Code = eb.Code
		switch {
		case eb.Error != "":
			apiErr.Message = eb.Error
		case eb.Message != "":
			apiErr.Message = eb.Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %d", res.StatusCode)
	}

	return apiErr
}
