//go:build tools

package tools

// Pins the lint and formatting tools to module-managed versions.
import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "mvdan.cc/gofumpt"
)
