// Package config loads command configuration from the process environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Prefix scopes the variables this module reads.
const Prefix = "PEPEDOME_"

// fileSuffix marks a variable whose value names a file holding the real
// value, as mounted by container secret stores.
const fileSuffix = "_FILE"

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	environment, err := Environ(os.Environ())
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if err := env.ParseWithOptions(target, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Environ turns KEY=VALUE pairs into a lookup map. PEPEDOME_NAME_FILE fills
// PEPEDOME_NAME from the referenced file unless PEPEDOME_NAME is set.
func Environ(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		values[key] = value
	}
	for key, path := range values {
		if !strings.HasPrefix(key, Prefix) || !strings.HasSuffix(key, fileSuffix) {
			continue
		}
		name := strings.TrimSuffix(key, fileSuffix)
		if current, ok := values[name]; ok && current != "" {
			continue
		}
		if strings.TrimSpace(path) == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		values[name] = strings.TrimRight(string(data), "\r\n")
	}
	return values, nil
}
