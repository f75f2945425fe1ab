package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/mlodi/backend/internal/config"
	"github.com/mlodi/backend/internal/database"
	"github.com/mlodi/backend/internal/handlers"
	"github.com/mlodi/backend/internal/jobs"
	"github.com/mlodi/backend/internal/middleware"
	"github.com/mlodi/backend/internal/notify"
	"github.com/mlodi/backend/internal/queue"
	"github.com/mlodi/backend/internal/routes"
	"github.com/mlodi/backend/internal/services/engagement"
	"github.com/mlodi/backend/internal/services/wallet"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Services
	walletSvc := wallet.NewWalletService(db)
	notifier := notify.NewRedisNotifier(redisClient)
	engine := engagement.NewService(db, walletSvc, notifier)

	// Background workers and recurring jobs
	jobQueue := queue.NewRedisQueue(redisClient)
	workers := jobs.RegisterWorkers(jobQueue, engine, 4)
	scheduler := jobs.ScheduleMaintenanceJobs(db, jobQueue)

	// Router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(middleware.SecureHeaders())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	rateLimiter := middleware.NewRateLimiter(20, 40)
	defer rateLimiter.Stop()

	routes.SetupEngagementRoutes(
		router,
		handlers.NewEngagementHandler(engine, jobQueue),
		handlers.NewChallengeHandler(engine),
		handlers.NewMilestoneHandler(engine),
		handlers.NewWalletHandler(walletSvc),
		handlers.NewAdminPointsHandler(engine, walletSvc),
		rateLimiter,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("MLODI engagement API listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()
	for _, w := range workers {
		w.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited")
}
