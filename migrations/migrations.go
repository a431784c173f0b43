// Package migrations embeds the SQL schema applied to Postgres with goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
