package cmd

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func versionString() string {
	return fmt.Sprintf("llm-code version %s\n  Git commit: %s\n  Build date: %s\n", Version, GitCommit, BuildDate)
}
