// Package cmd holds the startup steps shared by the site's commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pepedome/site/internal/platform/config"
	"github.com/pepedome/site/internal/platform/otel"
	"github.com/pepedome/site/internal/platform/timeouts"
)

// Service names used for telemetry and log lines.
const (
	ServiceServer = "server"
	ServiceWeb    = "web"
	ServiceWorker = "worker"
)

// ParseConfig loads environment values and defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags over values already loaded from env.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry sets up tracing for service and runs it until run returns.
// A run that ends because ctx was cancelled is a clean stop.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("service=%s otel shutdown: %v", service, err)
		}
	}()

	started := time.Now()
	log.Printf("service=%s starting", service)
	err = run(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}
	log.Printf("service=%s stopped uptime=%s", service, time.Since(started).Round(time.Second))
	return err
}
