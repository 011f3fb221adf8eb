package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/elitebarber/bookingd/libs/config"
	"github.com/elitebarber/bookingd/libs/db"
	"github.com/elitebarber/bookingd/libs/httpx"
	"github.com/elitebarber/bookingd/libs/kafkax"
	otelx "github.com/elitebarber/bookingd/libs/otel"
	"github.com/elitebarber/bookingd/libs/runtime"
	"github.com/elitebarber/bookingd/services/notification-service/internal/calendarlink"
	"github.com/elitebarber/bookingd/services/notification-service/internal/consumer"
	"github.com/elitebarber/bookingd/services/notification-service/internal/email"
	"github.com/elitebarber/bookingd/services/notification-service/internal/inbox"
	"github.com/elitebarber/bookingd/services/notification-service/internal/outbox"
	"github.com/elitebarber/bookingd/services/notification-service/internal/sms"
	"github.com/elitebarber/bookingd/services/notification-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	inboxRepo := inbox.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	emailSender := email.NewSMTPSender(email.SMTPConfig{
		Host:     config.String("SMTP_HOST", "mailpit"),
		Port:     config.String("SMTP_PORT", "1025"),
		From:     config.String("SMTP_FROM", "no-reply@elitebarber.local"),
		Username: config.String("SMTP_USERNAME", ""),
		Password: config.String("SMTP_PASSWORD", ""),
	})

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
		)
	default:
		smsSender = sms.NewNoopSender()
	}

	n := &notifier{
		logger:        logger,
		pool:          pool,
		notifications: storage.NewRepository(pool),
		outbox:        outboxRepo,
		email:         emailSender,
		sms:           smsSender,
		smsEnabled:    config.Bool("SMS_CONFIRMATIONS", false),
		failSuffix:    config.String("NOTIFICATION_FAIL_SUFFIX", ""),
		baseURL:       strings.TrimRight(config.String("PUBLIC_BASE_URL", ""), "/"),
		shop: calendarlink.Shop{
			Name:     config.String("SHOP_NAME", "Elite Barber Studio"),
			Address:  config.String("SHOP_ADDRESS", "123 Main Street, Downtown, NY 10001"),
			Phone:    config.String("SHOP_PHONE", "+1 (234) 567-890"),
			Timezone: config.String("SHOP_TIMEZONE", "America/New_York"),
			Domain:   config.String("SHOP_DOMAIN", "elitebarberstudio.com"),
		},
	}

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")

	confirmed := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CONFIRMED_TOPIC", "booking.confirmed.v1"),
	}, n.handleConfirmed)
	go confirmed.Run(ctx)

	cancelled := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CANCELLED_TOPIC", "booking.cancelled.v1"),
	}, n.handleCancelled)
	go cancelled.Run(ctx)

	followupDue := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_FOLLOWUP_TOPIC", "followup.due.v1"),
	}, n.handleFollowupDue)
	go followupDue.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
