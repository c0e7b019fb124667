package madea

import "embed"

// EmbeddedAssets contains static assets served under /public/: madea.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
