// Package migrations embeds the newsletter schema.
package migrations

import "embed"

// FS holds the newsletter SQL migrations.
//
//go:embed *.sql
var FS embed.FS
