package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/platform/ratelimit"
	contactapp "github.com/pepedome/site/internal/services/contact/app"
	contactdomain "github.com/pepedome/site/internal/services/contact/domain"
	contactsqlite "github.com/pepedome/site/internal/services/contact/storage/sqlite"
	"github.com/pepedome/site/internal/services/content"
	newsletterapp "github.com/pepedome/site/internal/services/newsletter/app"
	"github.com/pepedome/site/internal/services/web/modules"
	"github.com/pepedome/site/internal/services/web/modules/admin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const redisPingTimeout = 2 * time.Second

// RuntimeConfig lists the process-level inputs of the web service.
type RuntimeConfig struct {
	HTTPAddr         string
	BaseURL          string
	ContentPath      string
	NewsletterDBPath string
	ContactDBPath    string
	ContactInbox     string
	Email            email.SenderConfig
	Admin            AdminConfig
	Limits           RateLimitConfig
	Redis            RedisConfig
}

// AdminConfig enables the authoring area when Username is set.
type AdminConfig struct {
	Username      string
	PasswordHash  string
	SessionSecret string
	// Timezone names the IANA zone for schedule input; empty uses the
	// program's zone.
	Timezone            string
	TrustForwardedProto bool
}

// RedisConfig optionally records rate limit decisions in Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Run opens the stores, serves HTTP, and reloads the program file until ctx
// ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if strings.TrimSpace(cfg.ContentPath) == "" {
		return errors.New("content path is required")
	}
	program, err := content.NewWatcher(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return fmt.Errorf("build email sender: %w", err)
	}

	newsletters, err := newsletterapp.Open(ctx, newsletterapp.RuntimeConfig{
		DBPath:  cfg.NewsletterDBPath,
		BaseURL: cfg.BaseURL,
		Content: program,
		Sender:  sender,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := newsletters.Close(); closeErr != nil {
			log.Printf("close newsletter store: %v", closeErr)
		}
	}()

	contactStore, err := contactsqlite.Open(ctx, cfg.ContactDBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := contactStore.Close(); closeErr != nil {
			log.Printf("close contact store: %v", closeErr)
		}
	}()
	var forwarder contactdomain.Forwarder
	if inbox := strings.TrimSpace(cfg.ContactInbox); inbox != "" {
		forwarder = contactapp.MailForwarder{Sender: sender, Inbox: inbox}
	} else {
		log.Printf("contact inbox not configured, submissions are stored only")
	}

	deps := modules.Dependencies{
		Content:       program,
		Contact:       contactdomain.NewService(contactStore, forwarder),
		Subscriptions: newsletters.Service,
	}
	if strings.TrimSpace(cfg.Admin.Username) != "" {
		adminCfg, err := cfg.Admin.moduleConfig()
		if err != nil {
			return err
		}
		deps.Admin = &modules.AdminDependencies{
			Config: adminCfg,
			Services: admin.Dependencies{
				Newsletters: newsletters.Service,
				Subscribers: newsletters.Service,
				Previewer:   newsletters.Renderer,
				Content:     program,
			},
		}
	} else {
		log.Printf("admin username not configured, /admin is disabled")
	}

	limits := cfg.Limits
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("redis stats disabled addr=%s err=%v", addr, err)
		} else {
			limits.Stats = ratelimit.NewRedisStats(rdb, cfg.Redis.Prefix, 0)
		}
	}

	server, err := NewServer(ctx, Config{HTTPAddr: cfg.HTTPAddr, Modules: deps, Limits: limits})
	if err != nil {
		return err
	}
	defer server.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := program.Run(gctx); err != nil {
			log.Printf("program watcher stopped: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	return g.Wait()
}

func (c AdminConfig) moduleConfig() (admin.Config, error) {
	cfg := admin.Config{
		Username:            c.Username,
		PasswordHash:        c.PasswordHash,
		SessionSecret:       c.SessionSecret,
		TrustForwardedProto: c.TrustForwardedProto,
	}
	if zone := strings.TrimSpace(c.Timezone); zone != "" {
		location, err := time.LoadLocation(zone)
		if err != nil {
			return admin.Config{}, fmt.Errorf("load admin timezone %q: %w", zone, err)
		}
		cfg.Location = location
	}
	return cfg, nil
}
