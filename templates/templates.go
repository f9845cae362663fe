// Package templates embeds the default output templates.
package templates

import "embed"

//go:embed ruby/*.tmpl
var FS embed.FS
