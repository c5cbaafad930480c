// Package web embeds the demo storefront page served at the site root.
package web

import "embed"

//go:embed static
var Static embed.FS
