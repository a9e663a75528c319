// Package version carries build metadata injected with -ldflags -X.
package version

var (
	// Version is the release version of annotate
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
