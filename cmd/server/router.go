package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"optionsgateway/internal/chain"
	"optionsgateway/internal/marketdata"
	"optionsgateway/internal/mode"
	"optionsgateway/internal/provider"
	"optionsgateway/internal/provider/cache"
)

// gateway is the part of marketdata.Service the handlers use.
type gateway interface {
	Mode() mode.Mode
	GetExpirations(ctx context.Context, symbol string) ([]string, error)
	GetOptionChain(ctx context.Context, symbol, expiration string) (provider.OptionChain, error)
	GetUnderlyingQuote(ctx context.Context, symbol string) (provider.UnderlyingQuote, error)
	CacheStats() cache.Stats
	FlushCache()
}

type expirationsResponse struct {
	Symbol      string   `json:"symbol"`
	Expirations []string `json:"expirations"`
}

type chainResponse struct {
	Symbol     string                 `json:"symbol"`
	Expiration string                 `json:"expiration"`
	Calls      []provider.OptionQuote `json:"calls"`
	Puts       []provider.OptionQuote `json:"puts"`
}

type snapshotResponse struct {
	Symbol      string                   `json:"symbol"`
	Quote       provider.UnderlyingQuote `json:"quote"`
	Expirations []string                 `json:"expirations"`
}

type symbolQuery struct {
	Symbol string `form:"symbol" binding:"required,max=10,excludesall= \t"`
}

type chainQuery struct {
	Symbol     string `form:"symbol" binding:"required,max=10,excludesall= \t"`
	Expiration string `form:"expiration" binding:"required,datetime=2006-01-02"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
	Provider  string `json:"provider,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type handler struct {
	svc    gateway
	logger *slog.Logger
}

func newRouter(svc gateway, gatherer prometheus.Gatherer, logger *slog.Logger, timeout time.Duration) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{svc: svc, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLog(logger), withTimeout(timeout), withCORS())

	r.GET("/healthz", h.health)
	api := r.Group("/api/v1/options")
	api.GET("/expirations", h.expirations)
	api.GET("/chain", h.chain)
	api.GET("/quote", h.quote)
	api.GET("/snapshot", h.snapshot)

	r.GET("/debug/cache", h.cacheStats)
	r.POST("/debug/cache/flush", h.flushCache)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": h.svc.Mode()})
}

func (h *handler) expirations(c *gin.Context) {
	symbol, ok := h.symbol(c)
	if !ok {
		return
	}
	exps, err := h.svc.GetExpirations(c.Request.Context(), symbol)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, expirationsResponse{Symbol: symbol, Expirations: nonNil(exps)})
}

func (h *handler) chain(c *gin.Context) {
	var req chainQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "symbol must be 1-10 characters and expiration a YYYY-MM-DD date")
		return
	}
	symbol, expiration := strings.ToUpper(req.Symbol), req.Expiration
	oc, err := h.svc.GetOptionChain(c.Request.Context(), symbol, expiration)
	if err != nil {
		h.fail(c, err)
		return
	}
	sorted := chain.SortByStrike(oc)
	c.JSON(http.StatusOK, chainResponse{
		Symbol:     symbol,
		Expiration: expiration,
		Calls:      nonNil(sorted.Calls),
		Puts:       nonNil(sorted.Puts),
	})
}

func (h *handler) quote(c *gin.Context) {
	symbol, ok := h.symbol(c)
	if !ok {
		return
	}
	q, err := h.svc.GetUnderlyingQuote(c.Request.Context(), symbol)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// snapshot fetches the quote and the expirations concurrently.
func (h *handler) snapshot(c *gin.Context) {
	symbol, ok := h.symbol(c)
	if !ok {
		return
	}
	resp := snapshotResponse{Symbol: symbol}
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		q, err := h.svc.GetUnderlyingQuote(ctx, symbol)
		resp.Quote = q
		return err
	})
	g.Go(func() error {
		exps, err := h.svc.GetExpirations(ctx, symbol)
		resp.Expirations = nonNil(exps)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CacheStats())
}

func (h *handler) flushCache(c *gin.Context) {
	h.svc.FlushCache()
	h.logger.Info("market-data-cache-flushed", "source", "market-data")
	c.Status(http.StatusNoContent)
}

// symbol binds and upper-cases the symbol query parameter, answering 400
// when it is invalid.
func (h *handler) symbol(c *gin.Context) (string, bool) {
	var req symbolQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "symbol must be 1-10 characters")
		return "", false
	}
	return strings.ToUpper(req.Symbol), true
}

func (h *handler) fail(c *gin.Context, err error) {
	var se *marketdata.ServiceError
	if errors.As(err, &se) {
		code := marketdata.HTTPStatus(err)
		h.logger.DebugContext(c.Request.Context(), "market-data-request-rejected",
			"source", "market-data",
			"path", c.FullPath(),
			"status", code,
			"grpc_code", marketdata.GRPCCode(err).String(),
			"error_type", string(se.Type),
			"request_id", se.RequestID,
		)
		c.JSON(code, errorResponse{
			Error:     se.Message,
			ErrorType: string(se.Type),
			Provider:  string(se.Provider),
			RequestID: se.RequestID,
			Mode:      string(se.Mode),
		})
		return
	}
	h.logger.ErrorContext(c.Request.Context(), "market-data-request-failed",
		"source", "market-data",
		"path", c.FullPath(),
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Mode: string(h.svc.Mode())})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, ErrorType: "validation"})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func requestLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
		logger.DebugContext(c.Request.Context(), "http-request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// withTimeout bounds every request. Zero disables it.
func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func withCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
