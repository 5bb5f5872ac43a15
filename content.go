package stravastats

import "embed"

//go:embed etc/stravastats.yaml templates/*.tmpl
var Content embed.FS
