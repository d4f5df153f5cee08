package views

import "embed"

//go:embed layouts payment customers error.html
var FS embed.FS
