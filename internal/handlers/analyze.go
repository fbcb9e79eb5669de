package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"insight-gateway/internal/cache"
	"insight-gateway/internal/respond"
	"insight-gateway/internal/upstream"
	"insight-gateway/pkg/logging/logging"
)

// error codes returned to clients
const (
	errMethodNotAllowed = "method_not_allowed"
	errUnauthorized     = "unauthorized"
	errInvalidJSON      = "invalid_json"
	errMissingTopic     = "missing_topic"
	errUpstream         = "upstream_error"
	errUpstreamTimeout  = "upstream_timeout"
	errGateway          = "gateway_exception"
)

const apiKeyHeader = "X-Api-Key"

// Analyzer is the upstream dependency of AnalyzeHandler.
type Analyzer interface {
	Analyze(ctx context.Context, req upstream.Request) (*upstream.Response, error)
}

// AnalyzeHandler authenticates a client, forwards its topic to the
// orchestration service and caches the reply.
type AnalyzeHandler struct {
	Cache    cache.ResponseCache
	CacheTTL time.Duration
	APIKey   string
	Upstream Analyzer
}

func NewAnalyzeHandler(c cache.ResponseCache, ttl time.Duration, apiKey string, up Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{
		Cache:    c,
		CacheTTL: ttl,
		APIKey:   apiKey,
		Upstream: up,
	}
}

// Analyze handles every method on the analyze route. It answers OPTIONS
// preflights and POSTs, and rejects everything else with 405.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		respond.CORS(w.Header())
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		respond.Error(w, http.StatusMethodNotAllowed, errMethodNotAllowed, nil)
		return
	}

	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	if !h.authorized(r.Header.Get(apiKeyHeader)) {
		logger.Debug("unauthorized request")
		respond.Error(w, http.StatusUnauthorized, errUnauthorized, nil)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Warn("read request body failed", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, errInvalidJSON, nil)
		return
	}

	req, code := parseAnalyzeRequest(body)
	if code != "" {
		logger.Debug("invalid request", zap.String("error_code", code))
		respond.Error(w, http.StatusBadRequest, code, nil)
		return
	}

	cacheKey := cache.NewKey(req.Language, req.Geo, req.Topic).String()

	// ---- cache lookup ----
	cacheLookupStart := time.Now()
	cached, hit, cacheErr := h.Cache.Get(ctx, cacheKey)
	cacheLookupLatency := time.Since(cacheLookupStart)

	if cacheErr != nil {
		// Cache is best-effort; log and treat as miss.
		logger.Warn("response_cache_get_error", zap.Error(cacheErr))
		hit = false
	}

	if hit {
		logger.Info("cache_decision",
			zap.String("cache_key", cacheKey),
			zap.Bool("cache_hit", true),
			zap.Duration("cache_lookup_latency", cacheLookupLatency),
			zap.Duration("total_latency", time.Since(start)),
		)

		w.Header().Set("X-Cache", "HIT")
		respond.Raw(w, http.StatusOK, cached.Body)
		return
	}

	// ---- cache miss: call upstream ----
	upstreamStart := time.Now()
	resp, err := h.Upstream.Analyze(ctx, req)
	upstreamLatency := time.Since(upstreamStart)
	if err != nil {
		h.writeUpstreamError(w, logger, err)
		return
	}

	if err := h.Cache.Set(ctx, cacheKey, cache.Entry{
		Body:        resp.Body,
		ContentType: cache.ContentTypeJSON,
	}, h.CacheTTL); err != nil {
		logger.Warn("response_cache_set_error", zap.Error(err))
	}

	logger.Info("cache_decision",
		zap.String("cache_key", cacheKey),
		zap.Bool("cache_hit", false),
		zap.Duration("cache_lookup_latency", cacheLookupLatency),
		zap.Duration("upstream_latency", upstreamLatency),
		zap.Duration("total_latency", time.Since(start)),
	)

	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.CacheTTL.Seconds())))
	respond.Raw(w, http.StatusOK, resp.Body)
}

func (h *AnalyzeHandler) authorized(key string) bool {
	if key == "" || h.APIKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.APIKey)) == 1
}

func (h *AnalyzeHandler) writeUpstreamError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var statusErr *upstream.StatusError
	switch {
	case errors.As(err, &statusErr):
		logger.Warn("upstream returned error status",
			zap.Int("status", statusErr.Status),
			zap.String("detail", statusErr.Detail),
		)
		respond.Error(w, http.StatusBadGateway, errUpstream, map[string]any{
			"status": statusErr.Status,
			"detail": statusErr.Detail,
		})
	case upstream.IsTimeout(err):
		logger.Warn("upstream timed out", zap.Error(err))
		respond.Error(w, http.StatusGatewayTimeout, errUpstreamTimeout, nil)
	default:
		logger.Error("upstream call failed", zap.Error(err))
		respond.Error(w, http.StatusGatewayTimeout, errGateway, nil)
	}
}
