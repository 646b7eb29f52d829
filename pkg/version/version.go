// Package version holds build information, set at link time with
// -ldflags "-X github.com/docker/itemd/pkg/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "unknown"
)
