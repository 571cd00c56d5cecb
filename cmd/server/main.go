package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/maimang/backend/internal/config"
	"github.com/maimang/backend/internal/database"
	"github.com/maimang/backend/internal/handlers"
	"github.com/maimang/backend/internal/middleware"
	"github.com/maimang/backend/internal/moderation"
	"github.com/maimang/backend/internal/stats"
	"github.com/maimang/backend/internal/storage"
	"github.com/maimang/backend/pkg/logger"
	"github.com/maimang/backend/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	ledger := moderation.NewLedger(db)
	engine := moderation.NewEngine(db, ledger)
	batch := moderation.NewBatchCoordinator(cfg.Batch.Concurrency, cfg.Batch.ItemTimeout)
	computer := stats.NewComputer(db)

	if cfg.MinIO.Enabled {
		storageClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		if err := storageClient.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
		ledger.StartExporter(storageClient, cfg.Ledger.ExportInterval)
	}

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db)
	worksHandler := handlers.NewWorksHandler(db, engine, ledger, batch)
	commentsHandler := handlers.NewCommentsHandler(db, engine, ledger, batch)
	activitiesHandler := handlers.NewActivitiesHandler(db, engine, ledger)
	statsHandler := handlers.NewStatsHandler(computer, cfg.Stats.TrendMonths)
	notificationsHandler := handlers.NewNotificationsHandler()

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Get("/:id", usersHandler.Get)
	userRoutes.Put("/:id/role", usersHandler.UpdateRole)

	workRoutes := api.Group("/works", authMiddleware.RequireAuth)
	workRoutes.Get("/", worksHandler.List)
	workRoutes.Post("/", worksHandler.Create)
	workRoutes.Get("/pending", middleware.ModeratorOnly, worksHandler.ListPending)
	workRoutes.Post("/batch-review", middleware.ModeratorOnly, worksHandler.BatchReview)
	workRoutes.Get("/:id", worksHandler.Get)
	workRoutes.Post("/:id/like", worksHandler.Like)
	workRoutes.Delete("/:id/like", worksHandler.Unlike)
	workRoutes.Post("/:id/review", middleware.ModeratorOnly, worksHandler.Review)
	workRoutes.Put("/:id/review", middleware.ModeratorOnly, worksHandler.AmendReview)
	workRoutes.Get("/:id/history", middleware.ModeratorOnly, worksHandler.History)
	workRoutes.Post("/:id/comments", commentsHandler.Create)

	commentRoutes := api.Group("/comments", authMiddleware.RequireAuth)
	commentRoutes.Get("/", commentsHandler.List)
	commentRoutes.Get("/pending", middleware.ModeratorOnly, commentsHandler.ListPending)
	commentRoutes.Post("/batch-review", middleware.ModeratorOnly, commentsHandler.BatchReview)
	commentRoutes.Get("/:id", commentsHandler.Get)
	commentRoutes.Post("/:id/review", middleware.ModeratorOnly, commentsHandler.Review)
	commentRoutes.Put("/:id/review", middleware.ModeratorOnly, commentsHandler.AmendReview)
	commentRoutes.Get("/:id/history", middleware.ModeratorOnly, commentsHandler.History)

	activityRoutes := api.Group("/activities", authMiddleware.RequireAuth)
	activityRoutes.Get("/", activitiesHandler.List)
	activityRoutes.Post("/", middleware.ModeratorOnly, activitiesHandler.Create)
	activityRoutes.Get("/:id", activitiesHandler.Get)
	activityRoutes.Put("/:id", middleware.ModeratorOnly, activitiesHandler.Update)
	activityRoutes.Put("/:id/status", middleware.ModeratorOnly, activitiesHandler.UpdateStatus)
	activityRoutes.Get("/:id/history", middleware.ModeratorOnly, activitiesHandler.History)

	statsRoutes := api.Group("/stats", authMiddleware.RequireAuth, middleware.ModeratorOnly)
	statsRoutes.Get("/dashboard", statsHandler.Dashboard)
	statsRoutes.Get("/monthly", statsHandler.Monthly)
	statsRoutes.Get("/status/:entityType", statsHandler.StatusCounts)

	api.Post("/notifications/resolve", authMiddleware.RequireAuth, notificationsHandler.Resolve)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
