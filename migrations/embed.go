// Package migrations embeds the SQL schema so goose can apply it from the
// binary without a filesystem path.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
