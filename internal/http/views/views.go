// Package views embeds the storefront page templates.
package views

import "embed"

//go:embed *.html
var FS embed.FS
