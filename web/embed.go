package web

import "embed"

// StaticFS embeds the dashboard page and its assets under static/.
//
//go:embed static
var StaticFS embed.FS
