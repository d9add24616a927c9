package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripeak/training-engine/internal/api"
	"tripeak/training-engine/internal/config"
	"tripeak/training-engine/internal/notification"
	"tripeak/training-engine/internal/repository/mongo"
	"tripeak/training-engine/internal/service"
	"tripeak/training-engine/internal/templates"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron"
)

func main() {
	log.Println("Starting Training Plan Engine...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI, cfg.Database.Timeout)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureBiometricsIndexes(ctx, appDB.Collection("biometrics"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("training_plans"))
		mongo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts"))
		mongo.EnsureTrainingStateIndexes(ctx, appDB.Collection("user_training_states"))
		mongo.EnsureLogIndexes(ctx, appDB)
		log.Println("Index creation process completed.")
	}()

	// --- Load Template Library ---
	log.Println("Loading workout template library...")
	var templateSource templates.Source
	switch cfg.Templates.Source {
	case "s3":
		templateSource, err = templates.NewS3Source(cfg.Templates.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 template source: %v", err)
		}
	default:
		templateSource = templates.NewFileSource(cfg.Templates.Path)
	}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	library, err := templates.FromSource(loadCtx, templateSource)
	cancelLoad()
	if err != nil {
		log.Fatalf("FATAL: Failed to load template library: %v", err)
	}
	log.Printf("Template library loaded: %d templates.", library.Len())

	// --- Initialize Notifier ---
	notifier := notification.NewLogNotifier()
	if cfg.Notification.Enabled {
		notifier, err = notification.NewSNSNotifier(cfg.Notification)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize SNS notifier: %v", err)
		}
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	bioRepo := mongo.NewMongoBiometricsRepository(appDB)
	zoneRepo := mongo.NewMongoHeartRateZoneRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	activityRepo := mongo.NewMongoActivityLogRepository(appDB)
	feedbackRepo := mongo.NewMongoFeedbackLogRepository(appDB)
	adaptationLogRepo := mongo.NewMongoAdaptationLogRepository(appDB)
	stateRepo := mongo.NewMongoTrainingStateRepository(appDB)
	userLocker := mongo.NewMongoUserLocker(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	planService := service.NewPlanService(userRepo, bioRepo, zoneRepo, planRepo, workoutRepo, userLocker, library, cfg.Plan, notifier)
	adaptationService := service.NewAdaptationService(stateRepo, planRepo, workoutRepo, bioRepo, adaptationLogRepo, cfg.Adaptation, notifier)
	workoutService := service.NewWorkoutService(workoutRepo, activityRepo, feedbackRepo, adaptationService, cfg.Adaptation.RPETolerance)
	schedulerService := service.NewSchedulerService(planRepo, workoutRepo, userLocker, cfg.Plan)

	// --- Daily Sweep Schedule ---
	sweeper := cron.New()
	err = sweeper.AddFunc(cfg.Sweep.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := schedulerService.RunDailySweep(ctx, time.Now()); err != nil {
			log.Printf("ERROR: Scheduled sweep failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("FATAL: Invalid sweep cron spec %q: %v", cfg.Sweep.CronSpec, err)
	}
	sweeper.Start()
	defer sweeper.Stop()
	log.Printf("Daily sweep scheduled: %q", cfg.Sweep.CronSpec)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, planService, workoutService, schedulerService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
