// Package version holds build-time identifiers stamped in by ldflags.
// Version defaults to the orchestrator's own PipelineVersion scheme
// (see internal/orchestrator.Version) rather than a generic "dev" string,
// so an unstamped build still reports something tied to this pipeline.
package version

var (
	Version   = "lexseg-1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, commit, and build date as a triple.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}