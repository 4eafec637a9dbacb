// Package web parses web command flags and launches the site service.
package web

import (
	"context"
	"flag"

	entrypoint "github.com/pepedome/site/internal/platform/cmd"
	"github.com/pepedome/site/internal/platform/email"
	"github.com/pepedome/site/internal/services/web"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr         string `env:"PEPEDOME_WEB_HTTP_ADDR" envDefault:":8080"`
	BaseURL          string `env:"PEPEDOME_BASE_URL" envDefault:"http://localhost:8080"`
	ContentPath      string `env:"PEPEDOME_CONTENT_PATH" envDefault:"content/program.yaml"`
	NewsletterDBPath string `env:"PEPEDOME_NEWSLETTER_DB_PATH" envDefault:"data/newsletter.db"`
	ContactDBPath    string `env:"PEPEDOME_CONTACT_DB_PATH" envDefault:"data/contact.db"`
	ContactInbox     string `env:"PEPEDOME_CONTACT_INBOX"`
	ResendAPIKey     string `env:"PEPEDOME_RESEND_API_KEY"`
	ResendBaseURL    string `env:"PEPEDOME_RESEND_BASE_URL"`
	EmailFrom        string `env:"PEPEDOME_EMAIL_FROM" envDefault:"Pepe Dome <newsletter@pepedome.de>"`

	AdminUsername       string `env:"PEPEDOME_ADMIN_USERNAME"`
	AdminPasswordHash   string `env:"PEPEDOME_ADMIN_PASSWORD_HASH"`
	AdminSessionSecret  string `env:"PEPEDOME_ADMIN_SESSION_SECRET"`
	AdminTimezone       string `env:"PEPEDOME_ADMIN_TIMEZONE"`
	TrustForwardedProto bool   `env:"PEPEDOME_TRUST_FORWARDED_PROTO"`

	FormsPerMinute    float64 `env:"PEPEDOME_FORMS_PER_MINUTE" envDefault:"10"`
	FormBurst         int     `env:"PEPEDOME_FORM_BURST" envDefault:"5"`
	TrustForwardedFor bool    `env:"PEPEDOME_TRUST_FORWARDED_FOR"`

	RedisAddr     string `env:"PEPEDOME_REDIS_ADDR"`
	RedisPassword string `env:"PEPEDOME_REDIS_PASSWORD"`
	RedisDB       int    `env:"PEPEDOME_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"PEPEDOME_REDIS_PREFIX" envDefault:"pepedome:ratelimit"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Public site origin used in email links")
	fs.StringVar(&cfg.ContentPath, "content-path", cfg.ContentPath, "The program YAML file")
	fs.StringVar(&cfg.NewsletterDBPath, "newsletter-db-path", cfg.NewsletterDBPath, "The newsletter SQLite database path")
	fs.StringVar(&cfg.ContactDBPath, "contact-db-path", cfg.ContactDBPath, "The contact SQLite database path")
	fs.StringVar(&cfg.ContactInbox, "contact-inbox", cfg.ContactInbox, "Address that receives contact submissions")
	fs.StringVar(&cfg.EmailFrom, "email-from", cfg.EmailFrom, "Sender address of outgoing email")
	fs.StringVar(&cfg.AdminUsername, "admin-username", cfg.AdminUsername, "Admin login name; empty disables /admin")
	fs.StringVar(&cfg.AdminTimezone, "admin-timezone", cfg.AdminTimezone, "Time zone for schedule input; empty uses the program's zone")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for rate limit statistics")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RuntimeConfig converts the command configuration into the web runtime
// configuration.
func (c Config) RuntimeConfig() web.RuntimeConfig {
	return web.RuntimeConfig{
		HTTPAddr:         c.HTTPAddr,
		BaseURL:          c.BaseURL,
		ContentPath:      c.ContentPath,
		NewsletterDBPath: c.NewsletterDBPath,
		ContactDBPath:    c.ContactDBPath,
		ContactInbox:     c.ContactInbox,
		Email: email.SenderConfig{
			ResendAPIKey:  c.ResendAPIKey,
			ResendBaseURL: c.ResendBaseURL,
			From:          c.EmailFrom,
		},
		Admin: web.AdminConfig{
			Username:            c.AdminUsername,
			PasswordHash:        c.AdminPasswordHash,
			SessionSecret:       c.AdminSessionSecret,
			Timezone:            c.AdminTimezone,
			TrustForwardedProto: c.TrustForwardedProto,
		},
		Limits: web.RateLimitConfig{
			PerMinute:         c.FormsPerMinute,
			Burst:             c.FormBurst,
			TrustForwardedFor: c.TrustForwardedFor,
		},
		Redis: web.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		},
	}
}

// Run starts the web service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		return web.Run(ctx, cfg.RuntimeConfig())
	})
}
