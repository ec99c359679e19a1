// Package version holds the agent build version, set at build time via ldflags.
package version

var Version = "dev"
