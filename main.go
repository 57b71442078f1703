package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/utils"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"khatmaku_backend/internals/configs"
	database "khatmaku_backend/internals/databases"
	"khatmaku_backend/internals/events"
	"khatmaku_backend/internals/features/khatma/khatmas/scheduler"
	helper "khatmaku_backend/internals/helpers"
	"khatmaku_backend/internals/metrics"
	middlewares "khatmaku_backend/internals/middlewares"
	"khatmaku_backend/internals/middlewares/logger"
	routes "khatmaku_backend/internals/route"
	"khatmaku_backend/internals/seeds"
)

// errorHandler: fiber.Error (dari AuthJWT, 404 route, dll) → JSON standar.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return helper.JsonError(c, fe.Code, fe.Message)
	}
	log.Printf("[ERROR] %s %s rid=%v: %v", c.Method(), c.Path(), c.Locals("requestid"), err)
	return helper.JsonError(c, fiber.StatusInternalServerError, "")
}

func main() {
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            errorHandler,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// 🔎 Request-ID + timeout guard (selaras dengan statement_timeout di DB)
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("requestid", id)
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(middlewares.CorsMiddleware(cfg.CorsOrigins))
	app.Use(middlewares.GlobalRateLimiter())

	// 🔌 DB (kecuali KHATMA_STORE=memory)
	var db *gorm.DB
	if cfg.UseMemoryStore() {
		log.Println("⚠️ KHATMA_STORE=memory: data hilang saat restart")
	} else {
		db, err = database.ConnectDB(cfg)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		database.TunePool(db)
		if err := database.Migrate(db); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	// 📣 events + 📈 metrics
	pub := events.NewPublisher(cfg.RabbitURL, cfg.KhatmaExchange)
	rec := metrics.NewCollector(prometheus.DefaultRegisterer, "khatmaku")

	svcs := routes.NewServices(db, pub, rec)
	routes.SetupRoutes(app, svcs, cfg.JWTSecret)

	if cfg.RunSeed && svcs.Profiles != nil {
		seeds.RunAllSeeds(context.Background(), svcs.Profiles, svcs.Khatma)
	}

	// ⏱ reconciler status khatma setelah DB siap
	cr, err := scheduler.StartStatusReconciler(svcs.Khatma, scheduler.Config{
		Schedule:  cfg.ReconcileCron,
		BatchSize: cfg.ReconcileBatch,
	})
	if err != nil {
		log.Fatalf("❌ reconciler: %v", err)
	}

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: HTTP → cron → publisher → pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	select {
	case <-cr.Stop().Done():
	case <-ctx.Done():
		log.Println("[WARN] reconciler belum selesai saat shutdown")
	}
	if err := pub.Close(); err != nil {
		log.Printf("[WARN] close publisher: %v", err)
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
