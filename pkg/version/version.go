// Package version provides version and build information for the aggfiles CLI.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Package metadata. Version, Commit and BuildTime are populated at build
// time using -ldflags:
//
//	go build -ldflags "-X 'aggfiles/pkg/version.Version=1.2.3' -X 'aggfiles/pkg/version.Commit=abcdefg' -X 'aggfiles/pkg/version.BuildTime=2026-04-27T15:04:05Z'"
var (
	Name        = "aggfiles"
	Description = "Aggregates filtered source files into balanced text chunks"
	Authors     = "aggfiles contributors"
	Version     = "dev"     // Semantic version of the application
	Commit      = "none"    // Git commit hash
	BuildTime   = "unknown" // Build timestamp
)

// Info contains comprehensive version information.
type Info struct {
	Name        string // Application name
	Description string // One-line application description
	Authors     string // Author attribution
	Version     string // Semantic version
	GitCommit   string // Git commit hash
	BuildTime   string // Build timestamp
	GoVersion   string // Go runtime version
	Platform    string // OS and architecture
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Name:        Name,
		Description: Description,
		Authors:     Authors,
		Version:     Version,
		GitCommit:   Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
		Platform:    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns the full multi-line version report.
//
// Example output:
//
//	aggfiles v1.2.3
//	Authors: aggfiles contributors
//	Description: Aggregates filtered source files into balanced text chunks
//
//	Build Information:
//	  Commit: abcdefg
//	  Build Time: 2026-04-27T15:04:05Z
//	  Go Version: go1.23.1
//	  Platform: linux/amd64
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", i.Name, i.Version)
	fmt.Fprintf(&b, "Authors: %s\n", i.Authors)
	fmt.Fprintf(&b, "Description: %s\n", i.Description)
	b.WriteString("\nBuild Information:\n")
	fmt.Fprintf(&b, "  Commit: %s\n", i.GitCommit)
	fmt.Fprintf(&b, "  Build Time: %s\n", i.BuildTime)
	fmt.Fprintf(&b, "  Go Version: %s\n", i.GoVersion)
	fmt.Fprintf(&b, "  Platform: %s", i.Platform)
	return b.String()
}
