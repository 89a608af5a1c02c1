// Package migrations embeds the goose SQL migrations for the storefront schema.
package migrations

import "embed"

// FS holds every migration file. Files are applied in version order.
//
//go:embed *.sql
var FS embed.FS
