// Package migrations embeds the ordered SQL files applied at boot.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
