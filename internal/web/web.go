// Package web holds the upload page served at "/".
package web

import _ "embed"

//go:embed templates/index.html
var IndexPage []byte

//go:embed templates/nojs.html
var NoScriptPage []byte
