// Package worker parses worker command flags and launches the newsletter send
// worker.
package worker

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/pepedome/site/internal/platform/cmd"
	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/newsletter/dispatch"
	workerapp "github.com/pepedome/site/internal/services/worker/app"
)

// Config holds worker command configuration.
type Config struct {
	HealthAddr    string        `env:"PEPEDOME_WORKER_HEALTH_ADDR" envDefault:":8089"`
	DBPath        string        `env:"PEPEDOME_NEWSLETTER_DB_PATH" envDefault:"data/newsletter.db"`
	ContentPath   string        `env:"PEPEDOME_CONTENT_PATH" envDefault:"content/program.yaml"`
	BaseURL       string        `env:"PEPEDOME_BASE_URL" envDefault:"http://localhost:8080"`
	ResendAPIKey  string        `env:"PEPEDOME_RESEND_API_KEY"`
	ResendBaseURL string        `env:"PEPEDOME_RESEND_BASE_URL"`
	EmailFrom     string        `env:"PEPEDOME_EMAIL_FROM" envDefault:"Pepe Dome <newsletter@pepedome.de>"`
	PollInterval  time.Duration `env:"PEPEDOME_WORKER_POLL_INTERVAL" envDefault:"30s"`
	LeaseTTL      time.Duration `env:"PEPEDOME_WORKER_LEASE_TTL" envDefault:"2m"`
	SendDelay     time.Duration `env:"PEPEDOME_SEND_DELAY" envDefault:"600ms"`
	BatchSize     int           `env:"PEPEDOME_SEND_BATCH_SIZE" envDefault:"10"`
	BatchPause    time.Duration `env:"PEPEDOME_SEND_BATCH_PAUSE" envDefault:"2s"`

	// Healthcheck probes a running worker and exits instead of starting one.
	Healthcheck bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "The worker health gRPC listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The newsletter SQLite database path")
	fs.StringVar(&cfg.ContentPath, "content-path", cfg.ContentPath, "The program YAML file")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Public site origin used in email links")
	fs.StringVar(&cfg.EmailFrom, "email-from", cfg.EmailFrom, "Sender address of outgoing email")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "How often due newsletters are checked")
	fs.DurationVar(&cfg.LeaseTTL, "lease-ttl", cfg.LeaseTTL, "How long a stopped worker blocks others from its newsletter")
	fs.DurationVar(&cfg.SendDelay, "send-delay", cfg.SendDelay, "Pause between two send calls")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Send calls before the batch pause")
	fs.DurationVar(&cfg.BatchPause, "batch-pause", cfg.BatchPause, "Extra pause after every batch")
	fs.BoolVar(&cfg.Healthcheck, "healthcheck", false, "Probe the running worker's health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RuntimeConfig converts the command configuration into the worker runtime
// configuration.
func (c Config) RuntimeConfig() workerapp.RuntimeConfig {
	return workerapp.RuntimeConfig{
		HealthAddr:  c.HealthAddr,
		DBPath:      c.DBPath,
		ContentPath: c.ContentPath,
		BaseURL:     c.BaseURL,
		Email: email.SenderConfig{
			ResendAPIKey:  c.ResendAPIKey,
			ResendBaseURL: c.ResendBaseURL,
			From:          c.EmailFrom,
		},
		PollInterval: c.PollInterval,
		LeaseTTL:     c.LeaseTTL,
		Dispatch: dispatch.Config{
			Delay:      c.SendDelay,
			BatchSize:  c.BatchSize,
			BatchPause: c.BatchPause,
		},
	}
}

// Run starts the worker runtime, or probes a running one in healthcheck mode.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Healthcheck {
		return workerapp.CheckHealth(ctx, cfg.HealthAddr)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWorker, func(ctx context.Context) error {
		return workerapp.Run(ctx, cfg.RuntimeConfig())
	})
}
