//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run through `go run` or installed globally and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - gomock generator for internal/mocks
//   Run: go generate ./internal/mocks
//   Version: v0.6.0 (pinned in internal/mocks/generate.go)
//   Docs: https://github.com/uber-go/mock
//
// Air - Live reload for cmd/devidp while editing handlers
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run: air --build.cmd "go build -o ./tmp/devidp ./cmd/devidp" --build.bin ./tmp/devidp
//   Docs: https://github.com/air-verse/air
