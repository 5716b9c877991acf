package mpvremote

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

// maxBodySize caps how much of a response body is read. Thumbnails are
// the largest responses the server produces.
const maxBodySize = 16 << 20

// response is a successful reply.
type response struct {
	body   []byte
	header http.Header
}

// call makes a single HTTP request to the server.
//
// It never retries. Any non-2xx status, transport failure or body read
// failure is returned as *Error tagged with op.
func (c *Client) call(ctx context.Context, op, method, endpoint string, body io.Reader, contentType string) (*response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logDebugf("mpvremote: %s %s", method, endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeRequest(op, "network_error", time.Since(start).Seconds())
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		observeRequest(op, "network_error", time.Since(start).Seconds())
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome := "http_error"
		if resp.StatusCode == http.StatusUnauthorized {
			outcome = "unauthorized"
		}
		observeRequest(op, outcome, time.Since(start).Seconds())
		c.logDebugf("mpvremote: %s returned %d", op, resp.StatusCode)
		return nil, &Error{Op: op, StatusCode: resp.StatusCode}
	}

	observeRequest(op, "ok", time.Since(start).Seconds())
	return &response{body: data, header: resp.Header}, nil
}

// get performs a GET and decodes the JSON body into out when out is non-nil.
func (c *Client) get(ctx context.Context, op string, query url.Values, out interface{}) (*response, error) {
	resp, err := c.call(ctx, op, http.MethodGet, c.endpoint(op, query), nil, "")
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := decode(op, resp.body, out); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// postForm performs a urlencoded POST of a single form field.
func (c *Client) postForm(ctx context.Context, op, key, value string) error {
	form := url.Values{}
	form.Set(key, value)
	_, err := c.call(ctx, op, http.MethodPost, c.endpoint(op, nil),
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	return err
}

// decode unmarshals a JSON body, tagging failures as malformed.
func decode(op string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return malformed(op, err)
	}
	return nil
}
