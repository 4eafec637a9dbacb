// Package app runs the newsletter send worker process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pepedome/site/internal/platform/email"
	platformgrpc "github.com/pepedome/site/internal/platform/grpc"
	"github.com/pepedome/site/internal/services/content"
	newsletterapp "github.com/pepedome/site/internal/services/newsletter/app"
	"github.com/pepedome/site/internal/services/newsletter/dispatch"
	"github.com/pepedome/site/internal/services/newsletter/worker"
	"golang.org/x/sync/errgroup"
)

// HealthService names the send loop in grpc.health.v1.
const HealthService = "newsletter.worker"

const (
	defaultHealthAddr = ":8089"
	defaultWorkerDB   = "data/newsletter.db"
)

// RuntimeConfig controls worker startup, dependencies, and loop behavior.
type RuntimeConfig struct {
	HealthAddr   string
	DBPath       string
	ContentPath  string
	BaseURL      string
	Email        email.SenderConfig
	PollInterval time.Duration
	LeaseTTL     time.Duration
	Dispatch     dispatch.Config
}

// Run starts worker dependencies, the health endpoint, and the send loop, and
// blocks until ctx ends or a component fails.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.ContentPath) == "" {
		return errors.New("content path is required")
	}
	if strings.TrimSpace(cfg.HealthAddr) == "" {
		cfg.HealthAddr = defaultHealthAddr
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultWorkerDB
	}

	program, err := content.NewWatcher(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return fmt.Errorf("build email sender: %w", err)
	}
	runtime, err := newsletterapp.Open(ctx, newsletterapp.RuntimeConfig{
		DBPath:  cfg.DBPath,
		BaseURL: cfg.BaseURL,
		Content: program,
		Sender:  sender,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := runtime.Close(); closeErr != nil {
			log.Printf("close newsletter store: %v", closeErr)
		}
	}()

	dispatcher := dispatch.New(sender, runtime.Store, cfg.Dispatch)
	loop := worker.New(runtime.Service, dispatcher, runtime.Renderer, worker.Config{
		PollInterval: cfg.PollInterval,
		LeaseTTL:     cfg.LeaseTTL,
	})

	healthServer, err := platformgrpc.ListenHealth(cfg.HealthAddr, HealthService)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- healthServer.Serve()
	}()
	defer func() {
		healthServer.Stop()
		if err := <-serveErr; err != nil {
			log.Printf("worker health server: %v", err)
		}
	}()
	log.Printf("worker health listening at %v", healthServer.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The send loop keeps the last good program when reloads stop.
		if err := program.Run(gctx); err != nil {
			log.Printf("program watcher stopped: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		err := loop.Run(gctx)
		if err != nil {
			healthServer.SetNotServing(HealthService)
		}
		return err
	})
	return g.Wait()
}

// CheckHealth probes a running worker's health endpoint once.
func CheckHealth(ctx context.Context, addr string) error {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return platformgrpc.Probe(ctx, addr, HealthService)
}
