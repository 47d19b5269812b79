// Package web holds the embedded UI assets: HTML templates and static files.
package web

import "embed"

//go:embed templates static
var Assets embed.FS
