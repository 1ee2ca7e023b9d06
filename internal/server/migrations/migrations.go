// Package migrations embeds the identity backend's goose migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
