package jsearch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/utils"
)

const (
	contentEncoding = "gzip"
	maxErrorBody    = 512
)

type response struct {
	Status string           `json:"status"`
	Data   []map[string]any `json:"data"`
}

// get performs a GET request and retries transient failures.
func (c *Client) get(ctx context.Context, path string, q url.Values) (*response, error) {
	attempts := c.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// attempt counts from 0, so the first retry waits BaseDelay.
			delay := utils.Backoff(c.BaseDelay, attempt-1, 0)
			var transient *TransientError
			if errors.As(lastErr, &transient) && transient.RetryAfter > 0 {
				delay = transient.RetryAfter
			}

			c.logger.Warn("retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := wait(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := c.do(ctx, path, q)
		if err == nil {
			return resp, nil
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func (c *Client) do(ctx context.Context, path string, q url.Values) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.APIURL, "/")+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.Host)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.Path), zap.String("query", req.URL.RawQuery))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &TransientError{StatusCode: resp.StatusCode, Err: err}
		}
		defer gz.Close()
		body = gz
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, &TransientError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
			Err:        errors.New(resp.Status),
		}
	case resp.StatusCode >= http.StatusBadRequest:
		data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		return nil, &PermanentError{StatusCode: resp.StatusCode, Body: utils.TruncateForLog(string(data), maxErrorBody)}
	case resp.StatusCode != http.StatusOK:
		return nil, &PermanentError{StatusCode: resp.StatusCode, Body: resp.Status}
	}

	var out response
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return &out, nil
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
