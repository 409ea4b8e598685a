package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-autopost/internal/application/dispatcher"
	"github.com/go-autopost/internal/application/poster"
	"github.com/go-autopost/internal/application/publisher"
	"github.com/go-autopost/internal/application/verification"
	"github.com/go-autopost/internal/config"
	"github.com/go-autopost/internal/infrastructure/browser"
	"github.com/go-autopost/internal/infrastructure/dynamo"
	"github.com/go-autopost/internal/infrastructure/filestore"
	"github.com/go-autopost/internal/infrastructure/openai"
	s3infra "github.com/go-autopost/internal/infrastructure/s3"
	"github.com/go-autopost/internal/infrastructure/smtp"
	"github.com/go-autopost/internal/infrastructure/sns"
	"github.com/go-autopost/internal/infrastructure/webhook"
	"github.com/joho/godotenv"
)

func main() {
	message := flag.String("message", "", "message to post (overrides POST_MESSAGE)")
	platform := flag.String("platform", "twitter", "target platform voice for styling")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	text := *message
	if text == "" {
		text = cfg.PostMessage
	}
	if text == "" {
		log.Fatal("nothing to post: set POST_MESSAGE or pass -message")
	}

	store := newStore(cfg)
	svc := verification.NewService(store, cfg.RetentionMaxAge)
	pub := publisher.New(svc, newDispatcher(cfg), cfg.PollInterval, cfg.ResolutionDeadline)

	driver, err := browser.NewDriver(cfg)
	if err != nil {
		log.Fatalf("browser: %v", err)
	}
	defer driver.Close()

	screenshots := s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
	p := poster.New(driver, openai.NewStyler(cfg.OpenAIAPIKey), screenshots, pub, cfg.PlatformUsername)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.PostInterval <= 0 {
		if err := p.Run(ctx, text, *platform); err != nil {
			log.Fatalf("post failed: %v", err)
		}
		return
	}

	ticker := time.NewTicker(cfg.PostInterval)
	defer ticker.Stop()
	for {
		if err := p.Run(ctx, text, *platform); err != nil {
			log.Printf("post failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

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

// newDispatcher assembles the operator alert channels the environment
// configures. No channels is fine; the dashboard poller is the fallback.
func newDispatcher(cfg *config.Config) *dispatcher.Dispatcher {
	var channels []dispatcher.Channel
	if cfg.NotifyWebhookURL != "" {
		channels = append(channels, dispatcher.WebhookChannel{
			Notifier: webhook.NewNotifier(cfg.NotifyWebhookURL, cfg.AdminBaseURL),
		})
	}
	if cfg.NotifySMSTo != "" {
		if sender, err := sns.NewSender(cfg); err == nil {
			channels = append(channels, dispatcher.SMSChannel{Sender: sender, To: cfg.NotifySMSTo})
		} else {
			log.Printf("WARN: SNS sender not available: %v", err)
		}
	}
	if cfg.NotifyEmailTo != "" && cfg.SMTPHost != "" {
		channels = append(channels, dispatcher.EmailChannel{Mailer: smtp.NewMailer(cfg), To: cfg.NotifyEmailTo})
	}
	return dispatcher.New(channels...)
}
