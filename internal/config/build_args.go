package config

import "fmt"

// ModuleName is the name of the service.
const ModuleName = "go-sweeper"

// Set at build time via -ldflags "-X github/chapool/go-sweeper/internal/config.Commit=..."
var (
	BuildDate = "-"
	Commit    = "-"
)

// GetFormattedBuildArgs returns the build information for --version.
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
