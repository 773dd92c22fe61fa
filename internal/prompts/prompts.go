// Package prompts ships the default coding templates used when the user has
// no prompts directory of their own.
package prompts

import (
	"embed"
	"io/fs"

	"github.com/strrl/llm-code/internal/templates"
)

//go:embed coding
var defaults embed.FS

// FS exposes the embedded template files.
func FS() fs.FS {
	return defaults
}

// Load parses every embedded template into a library.
func Load() (*templates.Library, error) {
	return templates.LoadFS(defaults, ".")
}
