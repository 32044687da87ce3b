package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"lms/config"
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/routers/courseRoutes"
	"lms/services/catalog"
	"lms/services/progress"
	"lms/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

func runServer(cmd *cobra.Command) error {
	cfg, db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := catalog.NewRepository(db)
	var cat progress.Catalog = repo
	if rdb := connectRedis(ctx, cfg); rdb != nil {
		defer rdb.Close()
		cat = catalog.NewCached(repo, rdb, cfg.CatalogCacheTTL)
	}

	var mailer *utils.Mailer
	if cfg.SendgridAPIKey != "" {
		mailer = utils.NewMailer(cfg.SendgridAPIKey, cfg.EmailSender, cfg.EmailSenderName, cfg.SiteURL)
	}
	var webhook *utils.WebhookClient
	if cfg.NotifyWebhookURL != "" {
		webhook = utils.NewWebhookClient(cfg.NotifyWebhookURL)
	}
	dispatcher := utils.NewNotificationDispatcher(mailer, webhook, repo)

	svc := progress.NewService(progress.NewGormStore(db), cat,
		progress.WithDispatcher(dispatcher),
		progress.WithLessonNotifications(cfg.NotifyEachLesson),
	)

	scheduler, err := utils.InitializeRetentionScheduler(svc, cfg.RetentionCron, cfg.NotificationRetentionDays)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	app := newApp(db, svc, cfg)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server is running on port %s", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	dispatcher.Wait()
	return nil
}

func newApp(db *gorm.DB, svc *progress.Service, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Database connection error", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", fiber.Map{
			"server_time": time.Now().Format(time.RFC3339),
		})
	})

	courseRoutes.SetupCourseRoutes(app, controllers.NewHandler(svc), courseRoutes.Options{
		JWTSecret:       cfg.JWTKey,
		QuizSubmitLimit: cfg.QuizSubmitLimit,
	})
	return app
}

// connectRedis returns nil when no address is configured or the server is unreachable.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[CACHE] Redis at %s unreachable, catalog cache disabled: %v", cfg.RedisAddr, err)
		rdb.Close()
		return nil
	}
	log.Printf("[CACHE] Catalog cache enabled (ttl %s)", cfg.CatalogCacheTTL)
	return rdb
}
