package main

import (
	"context"
	"net/http"
	"time"

	"github.com/elitebarber/bookingd/libs/config"
	"github.com/elitebarber/bookingd/libs/db"
	"github.com/elitebarber/bookingd/libs/httpx"
	otelx "github.com/elitebarber/bookingd/libs/otel"
	"github.com/elitebarber/bookingd/libs/runtime"
	"github.com/elitebarber/bookingd/services/auth-service/internal/handlers"
	"github.com/elitebarber/bookingd/services/auth-service/internal/sessions"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "auth-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	passwordHash, err := config.RequiredString("ADMIN_PASSWORD_HASH")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	loginLimit := config.Int("LOGIN_RATE_LIMIT", 5)
	loginWindow := config.Duration("LOGIN_RATE_WINDOW", 15*time.Minute)

	// A Redis-backed limiter keeps the attempt count shared across replicas;
	// a single instance gets by with the in-process one.
	var limiter handlers.LoginLimiter
	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		limiter = handlers.NewRedisLimiter(httpx.NewRedisRateLimiter(rdb, loginLimit, loginWindow, "login"))
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		})
	} else {
		limiter = handlers.NewMemoryLimiter(httpx.NewRateLimiter(loginLimit, loginWindow))
	}

	authHandler := handlers.NewAuthHandler(handlers.Config{
		PasswordHash: passwordHash,
		JWTSecret:    jwtSecret,
		TokenTTL:     config.Duration("TOKEN_TTL", 8*time.Hour),
		SecureCookie: config.Bool("SECURE_COOKIES", false),
	}, sessions.NewRepository(pool), limiter, logger)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("/api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("/api/v1/auth/verify", authHandler.Verify)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "auth")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
