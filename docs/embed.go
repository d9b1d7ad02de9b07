// Copyright © 2024 The wlscope authors

// Package docs embeds the wlscope scoping reference for use by the CLI.
package docs

import _ "embed"

//go:embed scoping.md
var ScopingGuide string
