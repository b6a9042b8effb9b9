// Package migrations хранит SQL-миграции схемы, встроенные в бинарник.
package migrations

import "embed"

// Files содержит миграции в формате golang-migrate (NNNN_name.up.sql / .down.sql).
//
//go:embed *.sql
var Files embed.FS
