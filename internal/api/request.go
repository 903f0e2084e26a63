package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// maxResponseBytes caps a listings body. A sold-out stadium page is a few
// hundred kilobytes; anything near this is not a listings payload.
const maxResponseBytes = 16 << 20

// errBodyTooLarge is returned when a response exceeds maxResponseBytes.
var errBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)

// APIError represents a non-2xx response from the marketplace.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
	RetryAfter time.Duration // From a Retry-After header given in seconds
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// TransportError is a request that never produced a complete response:
// connection refused or reset, timeout, or a body cut off mid-read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "marketplace transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// fetch issues one GET and returns the body of a 2xx response.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	if len(body) > maxResponseBytes {
		return nil, errBodyTooLarge
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return body, nil
}

// retryAfter parses the delay-seconds form; HTTP dates are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// shouldRetry reports whether another attempt may succeed. Cancellation of
// the caller's context is final.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// fetchWithRetry retries fetch with jittered exponential backoff. A
// Retry-After from the server raises the wait but never lowers it.
func (c *Client) fetchWithRetry(ctx context.Context, path string, query url.Values) ([]byte, error) {
	backoff := c.retryBackoff

	for attempt := 0; ; attempt++ {
		body, err := c.fetch(ctx, path, query)
		if err == nil {
			return body, nil
		}
		if !shouldRetry(ctx, err) {
			return nil, err
		}
		if attempt == c.maxRetries {
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		wait := backoff/2 + time.Duration(rand.Int64N(int64(backoff)+1))
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > wait {
			wait = apiErr.RetryAfter
		}
		c.logger.Warn("marketplace request failed, retrying",
			"path", path,
			"attempt", attempt+1,
			"wait", wait,
			"error", err,
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}

// getJSON fetches path and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.fetchWithRetry(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
