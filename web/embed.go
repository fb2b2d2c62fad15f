package web

import "embed"

// TemplatesFS embeds the page and its partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and the small htmx glue script.
//
//go:embed static/*
var StaticFS embed.FS
