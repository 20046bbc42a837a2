//go:build tools

// Package tools pins the versions of development tools used by the Makefile.
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
)
