// File: cmd/version.go
package cmd

// Version is the application version.
// This value is intended to be set at build time using ldflags.
// Example: go build -ldflags "-X github.com/Tamas54/bravectl/cmd.Version=2.0.0"
var Version = "2.0.0"
