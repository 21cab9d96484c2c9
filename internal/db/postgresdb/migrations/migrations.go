// Package migrations embeds the goose migrations of the postgres storage.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
