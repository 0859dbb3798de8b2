package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"attendtrack/internal/api"
	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/config"
	"attendtrack/internal/events"
	"attendtrack/internal/httpmiddleware"
	"attendtrack/internal/logger"
	"attendtrack/internal/metrics"
	"attendtrack/internal/report"
	"attendtrack/internal/roster"
	"attendtrack/internal/store"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func openStore(cfg config.App, log zerolog.Logger) (store.Store, func(), error) {
	if cfg.StoreBackend == "memory" {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Msg("database schema ready")
	}
	return store.NewPostgres(db.Client), func() { _ = db.Close() }, nil
}

func runHTTP(cfg config.App, log zerolog.Logger) error {
	st, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	policy, err := roster.PolicyByName(cfg.CredentialPolicy)
	if err != nil {
		return err
	}
	if policy.Derivable() {
		log.Warn().Str("policy", policy.Name()).Msg("new students start with their roll number as password")
	}

	// Revocations and rate limits live in redis when it answers, in memory otherwise.
	var (
		revoker auth.Revoker           = auth.NewMemoryRevoker(cfg.JWTSigningKey)
		limiter httpmiddleware.Limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	redisUp := redisClient.Healthy(pingCtx)
	cancel()
	if redisUp {
		revoker = auth.NewRedisRevoker(redisClient.Client, cfg.JWTSigningKey)
	} else if redisClient != nil {
		log.Warn().Str("addr", cfg.RedisAddr).Msg("redis not reachable, token revocation is per-process")
	}
	if cfg.RateLimitBackend == "redis" {
		if !redisUp {
			return errors.New("RATE_LIMIT_BACKEND=redis but redis is not reachable")
		}
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
	}

	issuer := auth.Issuer{Name: cfg.JWTIssuer, Key: cfg.JWTSigningKey, TTL: cfg.AccessTTL}
	authSvc := auth.NewService(st, issuer, revoker, policy.Derivable(), log)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	err = authSvc.SeedAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	cancelSeed()
	if err != nil {
		return err
	}

	h := api.New(api.Deps{
		Store:      st,
		Redis:      redisClient,
		Auth:       authSvc,
		Guard:      auth.NewGuard(issuer, revoker, st, log),
		Roster:     roster.NewService(st, roster.Options{Policy: policy, Concurrency: cfg.ImportConcurrency}, log),
		Attendance: attendance.NewService(st, log),
		Reports:    report.NewEngine(st, cfg.WeeklyTrendWeeks),
		Events:     events.NewService(st),

		MaxUploadBytes: cfg.MaxUploadBytes,
		SecureCookies:  cfg.Production(),
		Log:            log,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(log, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(cfg.ClientOrigins)))
	r.Use(httpmiddleware.SecurityHeaders(cfg.Production()))
	r.Use(metrics.Middleware())
	r.Use(httpmiddleware.RateLimit(limiter, log))
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	h.Register(r)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info().Msg("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}
	log.Info().Msg("server exited")
	return nil
}

// corsConfig allows the configured origins, or any origin when none are set.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return c
}
