package main

import (
	"context"
	"net/http"
	"time"

	"github.com/elitebarber/bookingd/libs/config"
	"github.com/elitebarber/bookingd/libs/db"
	"github.com/elitebarber/bookingd/libs/httpx"
	"github.com/elitebarber/bookingd/libs/kafkax"
	otelx "github.com/elitebarber/bookingd/libs/otel"
	"github.com/elitebarber/bookingd/libs/runtime"
	"github.com/elitebarber/bookingd/services/booking-service/internal/handlers"
	"github.com/elitebarber/bookingd/services/booking-service/internal/outbox"
	"github.com/elitebarber/bookingd/services/booking-service/internal/shopconfig"
	"github.com/elitebarber/bookingd/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8081")
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

	bookingRepo := storage.NewBookingRepository(pool)
	hoursRepo := storage.NewHoursRepository(pool)
	tokenRepo := storage.NewTokenRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	shopcfgProvider, err := shopconfig.NewProvider(config.String("SHOP_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("shop config provider init failed; using local hours", "err", err)
		shopcfgProvider = nil
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(bookingRepo, hoursRepo, tokenRepo, outboxRepo, logger, shopcfgProvider)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/services", bookingHandler.Services)
	mux.HandleFunc("/api/v1/public/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/public/days", bookingHandler.Days)
	mux.HandleFunc("/api/v1/public/book", bookingHandler.Book)
	mux.HandleFunc("/api/v1/public/manage", bookingHandler.Manage)
	mux.HandleFunc("/api/v1/public/manage/cancel", bookingHandler.ManageCancel)
	mux.HandleFunc("/api/v1/public/manage/token", bookingHandler.ManageToken)
	mux.HandleFunc("/api/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bookingHandler.AdminList(w, r)
		case http.MethodPost:
			bookingHandler.AdminCreate(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/bookings/update", bookingHandler.AdminUpdate)
	mux.HandleFunc("/api/v1/bookings/cancel", bookingHandler.AdminCancel)
	mux.HandleFunc("/api/v1/business-hours", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bookingHandler.GetHours(w, r)
		case http.MethodPut, http.MethodPost:
			bookingHandler.UpdateHours(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
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
