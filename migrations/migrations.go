// Package migrations embeds the SQL schema so the binary and the tests
// migrate from the same files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
