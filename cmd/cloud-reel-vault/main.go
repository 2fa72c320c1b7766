package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/Disfractal/cloud-reel-vault/config"
	"github.com/Disfractal/cloud-reel-vault/handlers"
	"github.com/Disfractal/cloud-reel-vault/internal/events"
	"github.com/Disfractal/cloud-reel-vault/internal/jobtracker"
	"github.com/Disfractal/cloud-reel-vault/internal/pipeline"
	"github.com/Disfractal/cloud-reel-vault/internal/renditions"
	"github.com/Disfractal/cloud-reel-vault/internal/store"
	"github.com/Disfractal/cloud-reel-vault/internal/transcode"
	"github.com/Disfractal/cloud-reel-vault/internal/worker"
	"github.com/Disfractal/cloud-reel-vault/middleware"
)

func main() {
	config.InitLogger()
	log := config.Log

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := config.NewSupabaseClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase: %v", err)
	}

	// The rendition ladder is validated once here so an inconsistent ladder
	// fails the process at startup, never a job at submission time.
	profile := renditions.Default()
	builder, err := transcode.NewBuilder(profile, transcode.BuilderConfig{
		SourceBucket:      cfg.SourceBucket,
		OutputBucket:      cfg.OutputBucket,
		NotificationTopic: cfg.NotificationTopic,
	})
	if err != nil {
		log.Fatalf("Invalid rendition configuration: %v", err)
	}

	tracker, err := jobtracker.New(cfg.RedisAddr, log)
	if err != nil {
		log.Fatalf("Failed to initialize job tracker: %v", err)
	}
	defer tracker.Close()

	modelStore := store.NewModelStore(db, log)
	makeStore := store.NewMakeStore(db, log)
	submitter := transcode.NewClient(cfg.TranscoderEndpoint, cfg.TranscoderProject, cfg.TranscoderRegion)

	changeHandler := pipeline.NewHandler(modelStore, builder, submitter, tracker, log)
	reconciler := pipeline.NewReconciler(modelStore, tracker, log)

	dispatcher := worker.NewDispatcher(log, cfg.EventWorkers, 100)
	dispatcher.Run()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.NotificationTopic, cfg.KafkaGroupID, reconciler, log)
	go consumer.Run(consumerCtx)

	h := handlers.NewApplicationHandler(log, makeStore, modelStore, changeHandler, dispatcher, tracker)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "cloud-reel-vault is healthy",
		})
	})

	// Record-change webhook from the document backend.
	app.Post("/internal/hooks/models", h.HandleModelChange)

	apiV1 := app.Group("/api/v1")

	apiV1.Get("/makes", h.ListMakes)
	apiV1.Post("/makes", h.CreateMake)
	apiV1.Get("/makes/:id", h.GetMake)
	apiV1.Patch("/makes/:id", h.UpdateMake)
	apiV1.Delete("/makes/:id", h.DeleteMake)

	apiV1.Get("/makes/:makeId/models", h.ListModels)
	apiV1.Post("/makes/:makeId/models", h.CreateModel)
	apiV1.Get("/models/:id", h.GetModel)
	apiV1.Patch("/models/:id", h.UpdateModel)
	apiV1.Delete("/models/:id", h.DeleteModel)

	apiV1.Post("/models/:id/encoding/retry", h.RetryEncoding)
	apiV1.Get("/jobs/:id", h.GetJob)

	go func() {
		log.Infof("Starting cloud-reel-vault on %s", cfg.ListenAddr)
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
	}
	stopConsumer()
	if err := consumer.Close(); err != nil {
		log.Errorf("Error closing completion consumer: %v", err)
	}
	dispatcher.Stop()
	log.Info("Shutdown complete")
}
