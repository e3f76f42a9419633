// Package web holds the embedded browser pages. They are static HTML that
// talk to the JSON API, nothing is rendered server side.
package web

import _ "embed"

//go:embed dashboard.html
var Dashboard []byte

//go:embed stats.html
var Stats []byte
