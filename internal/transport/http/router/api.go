package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"souqbridge-identity/internal/core/config"
	"souqbridge-identity/internal/core/server"
	"souqbridge-identity/internal/service"
	"souqbridge-identity/internal/transport/http/handler"
	mdw "souqbridge-identity/internal/transport/http/middleware"
)

// NewAPIEngine builds the public engine: shared middleware, /health,
// /metrics and the account endpoints at the root.
func NewAPIEngine(l *zap.Logger, cfg *config.Config, svc *service.Accounts) *gin.Engine {
	mode := ""
	if cfg.App.IsProd() {
		mode = gin.ReleaseMode
	}
	r := server.NewRouter(l, server.Options{Mode: mode, CORSOrigins: cfg.App.HTTP.CORSOrigins})

	maxConcurrent := cfg.App.HTTP.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 300
	}
	reqTimeout := time.Duration(cfg.App.HTTP.RequestTimeoutSec) * time.Second
	if reqTimeout <= 0 {
		reqTimeout = 30 * time.Second
	}
	// multipart overhead on top of the three document parts
	r.MaxMultipartMemory = 8 << 20

	r.Use(mdw.RequestID())
	if cfg.RateLimit.GlobalRPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(cfg.RateLimit.GlobalRPS), cfg.RateLimit.GlobalBurst))
	}
	r.Use(
		mdw.ConcurrencyLimit(maxConcurrent),
		mdw.MaxBodyBytes(3*cfg.Upload.MaxBytes+(1<<20)),
		mdw.Timeout(reqTimeout),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	h := handler.NewAccountHandler(svc, handler.CookieOptions{
		Name:   cfg.JWT.CookieName,
		Secure: cfg.JWT.CookieSecure || cfg.App.IsProd(),
	}, l)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// credential endpoints get a per-IP budget on top of the global one
	accounts := r.Group("")
	if cfg.RateLimit.RPS > 0 {
		accounts.Use(mdw.RateLimitPerIP(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst, 10*time.Minute))
	}
	MountAll(New(accounts, svc, h.CookieName()), Accounts{H: h})

	return r
}
