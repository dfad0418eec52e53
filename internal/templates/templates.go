// Package templates contains embedded template files.
package templates

import (
	_ "embed"
)

// ConfigYAML contains the embedded default configuration.
//
//go:embed pwnbox.yaml
var ConfigYAML []byte
