// Package server parses flags for the combined process that serves the site
// and runs the newsletter worker side by side.
package server

import (
	"context"
	"flag"

	webcmd "github.com/pepedome/site/internal/cmd/web"
	workercmd "github.com/pepedome/site/internal/cmd/worker"
	entrypoint "github.com/pepedome/site/internal/platform/cmd"
	"github.com/pepedome/site/internal/services/web"
	workerapp "github.com/pepedome/site/internal/services/worker/app"
	"golang.org/x/sync/errgroup"
)

// Config holds the web and worker configuration of the combined process.
type Config struct {
	Web    webcmd.Config
	Worker workercmd.Config
}

// ParseConfig reads both service configurations from the environment and
// registers the flags they share once.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg.Web); err != nil {
		return Config{}, err
	}
	if err := entrypoint.ParseConfig(&cfg.Worker); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Web.HTTPAddr, "http-addr", cfg.Web.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Worker.HealthAddr, "health-addr", cfg.Worker.HealthAddr, "The worker health gRPC listen address")
	contentPath := fs.String("content-path", cfg.Web.ContentPath, "The program YAML file")
	baseURL := fs.String("base-url", cfg.Web.BaseURL, "Public site origin used in email links")
	dbPath := fs.String("newsletter-db-path", cfg.Web.NewsletterDBPath, "The newsletter SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Web.ContentPath, cfg.Worker.ContentPath = *contentPath, *contentPath
	cfg.Web.BaseURL, cfg.Worker.BaseURL = *baseURL, *baseURL
	cfg.Web.NewsletterDBPath, cfg.Worker.DBPath = *dbPath, *dbPath
	return cfg, nil
}

// Run starts the web service and the worker until either fails or ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			return web.Run(ctx, cfg.Web.RuntimeConfig())
		})
		group.Go(func() error {
			return workerapp.Run(ctx, cfg.Worker.RuntimeConfig())
		})
		return group.Wait()
	})
}
