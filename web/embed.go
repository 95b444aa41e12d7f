// Package web embeds the board's static assets.
package web

import "embed"

// StaticFiles holds web/static, served under /static/ and hashed into the
// asset version.
//
//go:embed static/*
var StaticFiles embed.FS
