// Package migrations embeds the contact schema.
package migrations

import "embed"

// FS holds the contact SQL migrations.
//
//go:embed *.sql
var FS embed.FS
