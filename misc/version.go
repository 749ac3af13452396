// Package misc keeps build time information.
package misc

// Set by the linker: -ldflags "-X thememig/misc.version=... -X thememig/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
	appName = "thememig"
)

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns commit hash the program was built from.
func GetGitHash() string {
	return gitHash
}

// GetAppName returns short program name used for logs, reports and temporary
// files.
func GetAppName() string {
	return appName
}
