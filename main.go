package main

import (
	"context"
	"log"
	"os/signal"
	"storefront/config"
	"storefront/database"
	"storefront/events"
	"storefront/gateway"
	"storefront/handler"
	"storefront/helper"
	"storefront/metrics"
	"storefront/model"
	"storefront/realtime"
	"storefront/repository"
	"storefront/router"
	"storefront/service"
	"storefront/utils"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	if cfg.RazorpayKeySecret == "" {
		log.Fatalf("RAZORPAY_KEY_SECRET: %v", service.ErrMissingKeySecret)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.ConnectDB(cfg.Database)
	if cfg.SeedDemo {
		database.SeedData(db)
	}
	rdb := database.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)

	m := metrics.GetMetrics()
	store := repository.NewStore(db)

	hub := realtime.NewHub(rdb)
	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Printf("Order feed relay stopped: %v", err)
		}
	}()

	notifiers := events.Fanout{hub}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Printf("Kafka producer disabled: %v", err)
		} else {
			publisher := events.NewKafkaPublisher(producer, cfg.KafkaOrderTopic,
				events.WithErrorHandler(func(event model.OrderPlacedEvent, err error) {
					log.Printf("Kafka publish failed order=%s: %v", event.OrderCode, err)
					m.NotifyFailedTotal.WithLabelValues("kafka").Inc()
				}),
			)
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
		}
	}

	checkout := service.NewCheckoutService(service.Dependencies{
		Store:       store,
		Carts:       repository.NewCartStore(rdb),
		Gateway:     gateway.NewRazorpay(model.RazorpayConfig{KeyID: cfg.RazorpayKeyID, KeySecret: cfg.RazorpayKeySecret}, cfg.GatewayTimeout),
		Notifier:    notifiers,
		Mailer:      utils.NewMailer(cfg.SMTP, cfg.AppURL, cfg.Currency),
		Locker:      repository.NewRedisLocker(rdb, 30*time.Second, m),
		Metrics:     m,
		KeySecret:   cfg.RazorpayKeySecret,
		Currency:    cfg.Currency,
		MailTimeout: cfg.MailTimeout,
	})

	reconciler := service.NewReconciler(store.Payments(), cfg.PendingPaymentTTL, m)
	reconcileScheduler, err := helper.StartReconcileScheduler(reconciler)
	if err != nil {
		log.Fatal(err)
	}
	gaugeScheduler, err := helper.StartPendingGaugeScheduler(reconciler)
	if err != nil {
		log.Fatal(err)
	}
	defer helper.StopSchedulers(reconcileScheduler, gaugeScheduler)

	app := router.NewApp()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CorsOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	h := handler.New(checkout, hub, map[string]handler.PingFunc{
		"database": store.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	})
	router.SetupRoutes(app, h, []byte(cfg.JWTSecret), store.Customers())

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
