package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-autopost/internal/application/admin"
	"github.com/go-autopost/internal/application/verification"
	"github.com/go-autopost/internal/application/watcher"
	"github.com/go-autopost/internal/config"
	"github.com/go-autopost/internal/infrastructure/dynamo"
	"github.com/go-autopost/internal/infrastructure/filestore"
	jwtinfra "github.com/go-autopost/internal/infrastructure/jwt"
	"github.com/go-autopost/internal/infrastructure/openai"
	s3infra "github.com/go-autopost/internal/infrastructure/s3"
	transporthttp "github.com/go-autopost/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	store := newStore(cfg)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("session provider: %v", err)
	}
	adminSvc, err := admin.NewService(cfg, jwtProvider)
	if err != nil {
		log.Fatalf("admin gate: %v", err)
	}

	// Presigner for challenge screenshots.
	s3Store := s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)

	deps := &transporthttp.Deps{
		Store:       store,
		Presigner:   s3Store,
		Styler:      openai.NewStyler(cfg.OpenAIAPIKey),
		AdminAuth:   adminSvc,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	// Background pending-count watcher and maintenance sweep share a
	// service instance with the router's store.
	svc := verification.NewService(store, cfg.RetentionMaxAge)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watcher.New(svc, cfg.WatchInterval, nil).Run(ctx)

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		if err := svc.Sweep(context.Background(), cfg.ResolutionDeadline, cfg.RetentionMaxAge); err != nil {
			log.Printf("sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid SWEEP_SCHEDULE %q: %v", cfg.SweepSchedule, err)
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Admin server starting on :%s (env=%s, backend=%s)", cfg.AppPort, cfg.AppEnv, cfg.VerificationBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// newStore selects the verification backend. DynamoDB is the default; the
// file store remains for single-host deployments that share a volume.
func newStore(cfg *config.Config) verification.Store {
	switch cfg.VerificationBackend {
	case "file":
		return filestore.New(cfg.VerificationFile)
	default:
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.VerificationTable)
		return dynamo.NewVerificationRepo(client, cfg.VerificationTable)
	}
}
