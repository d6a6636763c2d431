// Package migrations embeds the SQL schema so binaries and tests apply the
// exact same migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
