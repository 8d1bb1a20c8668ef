// Package web holds the journal's templates and browser assets.
package web

import "embed"

// Templates embeds the page, partial and region templates.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html templates/regions/*.html
var Templates embed.FS

// Static embeds the stylesheet and the geolocation script.
//
//go:embed static/css/*.css static/js/*.js
var Static embed.FS
