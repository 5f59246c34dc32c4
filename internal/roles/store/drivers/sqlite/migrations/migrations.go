// Package migrations embeds the permission store schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
