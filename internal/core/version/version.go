// Package version reports build metadata set through -ldflags
package version

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information for service
//
//	-ldflags "-X 'github.com/masteryoda101/fake-star-check/internal/core/version.version=v0.1.0'
//	          -X 'github.com/masteryoda101/fake-star-check/internal/core/version.commit=abcd'"
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// UserAgent is sent on every outbound registry and code host request
func UserAgent() string { return "fake-star-check/" + version }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
