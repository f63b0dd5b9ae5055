package version

import "fmt"

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/casperdag/casperd/version.appBuild=foo"'
// if needed.
var appBuild string

var version = ""

// Version returns the application version as a properly formed string
func Version() string {
	if version == "" {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
		if appBuild != "" {
			version = fmt.Sprintf("%s-%s", version, appBuild)
		}
	}
	return version
}
