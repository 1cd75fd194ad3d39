// Package server exposes the HTTP API: entitlement resolution and feature
// checks, subscription record ingest, account administration and the
// collection endpoints whose writes are capped by entitlements.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/briarworks/briarkeep/internal/account"
	accountdomain "github.com/briarworks/briarkeep/internal/account/domain"
	"github.com/briarworks/briarkeep/internal/apikey"
	apikeydomain "github.com/briarworks/briarkeep/internal/apikey/domain"
	"github.com/briarworks/briarkeep/internal/cache"
	"github.com/briarworks/briarkeep/internal/clock"
	"github.com/briarworks/briarkeep/internal/collection"
	collectiondomain "github.com/briarworks/briarkeep/internal/collection/domain"
	"github.com/briarworks/briarkeep/internal/config"
	"github.com/briarworks/briarkeep/internal/entitlement"
	entitlementdomain "github.com/briarworks/briarkeep/internal/entitlement/domain"
	"github.com/briarworks/briarkeep/internal/observability"
	obslogger "github.com/briarworks/briarkeep/internal/observability/logger"
	obsmetrics "github.com/briarworks/briarkeep/internal/observability/metrics"
	obstracing "github.com/briarworks/briarkeep/internal/observability/tracing"
	"github.com/briarworks/briarkeep/internal/ratelimit"
	"github.com/briarworks/briarkeep/internal/subscription"
	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

var Module = fx.Module("http.server",
	clock.Module,
	cache.Module,
	account.Module,
	apikey.Module,
	subscription.Module,
	entitlement.Module,
	collection.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, metrics *obsmetrics.Metrics, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return r
}

func registerGin(obsCfg observability.Config, metrics *obsmetrics.Metrics, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, metrics, httpMetrics)
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	policy          *config.PolicyHolder
	apiKeySvc       apikeydomain.Service
	accountSvc      accountdomain.Service
	subscriptionSvc subscriptiondomain.Service
	entitlementSvc  entitlementdomain.Service
	collectionSvc   collectiondomain.Service
	limiter         *ratelimit.CheckLimiter
	metrics         *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Policy          *config.PolicyHolder
	APIKeySvc       apikeydomain.Service
	AccountSvc      accountdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	EntitlementSvc  entitlementdomain.Service
	CollectionSvc   collectiondomain.Service
	Limiter         *ratelimit.CheckLimiter `optional:"true"`
	Metrics         *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		policy:          p.Policy,
		apiKeySvc:       p.APIKeySvc,
		accountSvc:      p.AccountSvc,
		subscriptionSvc: p.SubscriptionSvc,
		entitlementSvc:  p.EntitlementSvc,
		collectionSvc:   p.CollectionSvc,
		limiter:         p.Limiter,
		metrics:         p.Metrics,
	}
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1")

	entitlements := v1.Group("/entitlements", s.APIKeyRequired(apikeydomain.ScopeEntitlementsRead))
	{
		entitlements.POST("/resolve", s.rateLimited(), s.resolveEntitlements)
		entitlements.POST("/check", s.rateLimited(), s.checkFeature)
	}

	v1.GET("/features", s.APIKeyRequired(apikeydomain.ScopeEntitlementsRead), s.listFeatures)

	records := v1.Group("/subscriptions/records", s.APIKeyRequired(apikeydomain.ScopeSubscriptionsWrite))
	{
		records.GET("", s.listSubscriptionRecords)
		records.POST("", s.upsertSubscriptionRecord)
	}

	accounts := v1.Group("/accounts", s.APIKeyRequired(apikeydomain.ScopeAccountsWrite))
	{
		accounts.GET("", s.listAccounts)
		accounts.POST("", s.createAccount)
		accounts.GET("/:id", s.getAccount)
		accounts.GET("/:id/entitlements", s.getAccountEntitlements)
		accounts.PUT("/:id/grandfathered", s.setAccountGrandfathered)
	}

	collections := v1.Group("/collections", s.APIKeyRequired(apikeydomain.ScopeCollectionsWrite))
	{
		collections.GET("/:accountId/pipes", s.listPipes)
		collections.POST("/:accountId/pipes", s.addPipe)
		collections.DELETE("/:accountId/pipes/:id", s.removePipe)
		collections.GET("/:accountId/blends", s.listBlends)
		collections.POST("/:accountId/blends", s.addBlend)
		collections.DELETE("/:accountId/blends/:id", s.removeBlend)
	}

	admin := v1.Group("/admin", s.APIKeyRequired(apikeydomain.ScopeAdmin))
	{
		admin.GET("/policy", s.getPolicy)
		admin.POST("/policy/refresh", s.refreshPolicy)
		admin.GET("/api-keys", s.listAPIKeys)
		admin.POST("/api-keys", s.createAPIKey)
		admin.DELETE("/api-keys/:id", s.revokeAPIKey)
	}
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
