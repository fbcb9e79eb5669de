package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"insight-gateway/internal/metrics"
)

const (
	// MaxDetailChars caps the error detail relayed from a failed upstream call.
	MaxDetailChars = 300

	// error bodies are read best-effort and only partially
	maxErrorBodyBytes = 64 * 1024
)

// Analyze forwards req to the orchestration service and returns its raw
// reply. The call is cancelled when the configured timeout elapses; in
// that case the error wraps ErrTimeout. A non-2xx reply yields a
// *StatusError. Nothing is retried.
func (c *Client) Analyze(parentCtx context.Context, req Request) (*Response, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(parentCtx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.do(ctx, req)
	latency := time.Since(start)
	metrics.UpstreamLatencySeconds.Observe(latency.Seconds())

	outcome := "ok"
	var statusErr *StatusError
	switch {
	case err == nil:
	case errors.As(err, &statusErr):
		outcome = "http_error"
	case IsTimeout(err):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		c.logger.Warn("upstream_call",
			zap.String("outcome", outcome),
			zap.Duration("duration", latency),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("upstream_call",
		zap.String("outcome", outcome),
		zap.Int("status", resp.Status),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", latency),
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("upstream: build HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, "post", err)
	}
	defer resp.Body.Close()

	// Handle non-2xx responses
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// best-effort: a failed read leaves the detail empty
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		detail := ""
		if readErr == nil {
			detail = truncateChars(string(raw), MaxDetailChars)
		}
		return nil, &StatusError{Status: resp.StatusCode, Detail: detail}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, "read body", err)
	}

	if !gjson.ValidBytes(data) {
		c.logger.Warn("upstream payload is not valid JSON",
			zap.Int("bytes", len(data)),
			zap.String("head", truncateChars(string(data), 80)),
		)
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// classify maps a transport failure onto ErrTimeout when the call's
// deadline is what stopped it.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("upstream: %s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("upstream: %s: %w", op, err)
}

// truncateChars keeps at most n characters of s without splitting a rune.
func truncateChars(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
