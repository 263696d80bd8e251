package tableovertwo

import "embed"

// EmbeddedAssets are the stylesheet and icon shipped with the site. They are
// served under /public/ ahead of the static directory.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

var embeddedFiles = []string{"styles.css", "favicon.svg"}
