package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/elitebarber/bookingd/libs/config"
	"github.com/elitebarber/bookingd/libs/db"
	"github.com/elitebarber/bookingd/libs/httpx"
	"github.com/elitebarber/bookingd/libs/kafkax"
	otelx "github.com/elitebarber/bookingd/libs/otel"
	"github.com/elitebarber/bookingd/libs/runtime"
	"github.com/elitebarber/bookingd/services/followup-service/internal/consumer"
	"github.com/elitebarber/bookingd/services/followup-service/internal/inbox"
	"github.com/elitebarber/bookingd/services/followup-service/internal/jobs"
	"github.com/elitebarber/bookingd/services/followup-service/internal/outbox"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type bookingEvent struct {
	BookingID    string   `json:"booking_id"`
	CustomerName string   `json:"customer_name"`
	Email        string   `json:"email"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	EndTime      string   `json:"end_time"`
	Services     []string `json:"services"`
}

// appointmentEnd resolves the local wall-clock end of the appointment.
func appointmentEnd(date, endClock string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+endClock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func main() {
	service := config.String("SERVICE_NAME", "followup-service")
	port, err := config.Port("PORT", "8083")
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

	jobsRepo := jobs.NewRepository()
	outboxRepo := outbox.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)

	followupDelay := config.Duration("FOLLOWUP_DELAY", 30*time.Minute)
	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "followup-service")

	confirmedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CONFIRMED_TOPIC", "booking.confirmed.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var evt bookingEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.BookingID == "" || evt.Email == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}
		end, ok := appointmentEnd(evt.Date, evt.EndTime)
		if !ok {
			logger.Error("unparseable appointment end", "booking_id", evt.BookingID)
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := jobsRepo.Insert(ctx, tx, jobs.Job{
			BookingID:    evt.BookingID,
			Recipient:    evt.Email,
			CustomerName: evt.CustomerName,
			Services:     evt.Services,
			Date:         evt.Date,
			Time:         evt.Time,
			DueAt:        end.Add(followupDelay),
		}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	go confirmedConsumer.Run(ctx)

	cancelledConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CANCELLED_TOPIC", "booking.cancelled.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var evt bookingEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.BookingID == "" {
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := jobsRepo.CancelForBooking(ctx, tx, evt.BookingID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	go cancelledConsumer.Run(ctx)

	worker := jobs.NewWorker(pool, jobsRepo, outboxRepo, logger, jobs.WorkerConfig{
		Interval:  config.Duration("WORKER_INTERVAL", 5*time.Second),
		BatchSize: config.Int("WORKER_BATCH_SIZE", 50),
	})
	go worker.Run(ctx)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "followup")
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
