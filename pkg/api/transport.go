package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const maxBodySize = 1 << 20

// Client issues JSON requests against one backend origin.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON when non-nil.
	Body any
	// AccessToken is sent as a Bearer credential when non-empty.
	AccessToken string
}

// JSON performs req and decodes the response body into out. A missing or
// undecodable body on a 2xx response is an error.
func (c *Client) JSON(ctx context.Context, req Request, out any) error {
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

// MaybeJSON is JSON for endpoints that may answer without a usable body.
// It reports false when the response was 204, empty or not decodable.
func (c *Client) MaybeJSON(ctx context.Context, req Request, out any) (bool, error) {
	body, err := c.do(ctx, req)
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(body)) == 0 || out == nil {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Debugf("ignoring undecodable %s %s response: %v", req.Method, req.Path, err)
		return false, nil
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s request: %w", method, req.Path, err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s request: %w", method, req.Path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	log.Tracef("%s %s", method, target)
	resp, err := c.clientFor(ctx, req.AccessToken).Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Op: method, URL: target, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, toAPIError(resp.StatusCode, body)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return body, nil
}

func (c *Client) clientFor(ctx context.Context, accessToken string) *http.Client {
	if accessToken == "" {
		return c.http
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

type errorBody struct {
	Message     *string           `json:"message"`
	Details     []string          `json:"details"`
	FieldErrors map[string]string `json:"fieldErrors"`
}

func toAPIError(status int, body []byte) *APIError {
	fallback := fmt.Sprintf("Request failed with status %d", status)

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{Status: status, Message: fallback}
	}
	message := fallback
	if payload.Message != nil {
		message = *payload.Message
	}
	return &APIError{
		Status:      status,
		Message:     message,
		Details:     payload.Details,
		FieldErrors: payload.FieldErrors,
	}
}
