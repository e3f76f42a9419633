// Package version carries build metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/kmills/shortlink/version.Version=v1.2.3"
package version

// Version is "dev" unless overridden by ldflags at release time.
var Version = "dev"
