package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/simplenet-proto/simplenet/internal/observability"
	"github.com/simplenet-proto/simplenet/internal/ratelimit"
)

// serveOps runs the HTTP ops surface until ctx is done. It rides
// beside the protocol listener and never touches the page pipeline.
func (s *Service) serveOps(ctx context.Context, addr string) error {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(s.cfg.CORSOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	buckets := ratelimit.NewBucketStore(s.cfg.OpsRate, s.cfg.OpsBurst)
	buckets.StartJanitor(ctx)
	r.Use(opsRateLimit(buckets))

	s.registerOpsRoutes(r)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("simplenet ops listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) registerOpsRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": "simplenetd",
			"version": "0.0.1",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.started).String(),
			"service": "simplenetd",
			"version": "0.0.1",
		})
	})

	r.GET("/domains", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"domains": s.resolver.Snapshot(),
		})
	})

	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"active_connections": s.ActiveConnections(),
			"served":             s.Served(),
			"totals":             s.memStats.Totals(),
			"by_status":          s.memStats.ByStatus(),
			"rate_clients":       s.limiter.Clients(),
		})
	})
}

// opsRateLimit guards ops endpoints with a per-IP token bucket.
func opsRateLimit(buckets *ratelimit.BucketStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !buckets.Get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
