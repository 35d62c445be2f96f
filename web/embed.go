// Package web carries the embedded assets for the dashboard pages.
package web

import "embed"

// TemplatesFS holds the index and dashboard page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and other static assets.
//
//go:embed static/*
var StaticFS embed.FS
