// Package version holds the ceres release version.
package version

// Version is overridden at link time with -ldflags "-X .../version.Version=...".
var Version = "0.2.0-dev"
