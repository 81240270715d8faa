// Package version records build metadata stamped through -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of this build.
	Version = "0.1.0-dev"

	// GitCommit and BuildDate are optional stamps, empty in dev builds.
	GitCommit = ""
	BuildDate = ""
)

var componentTints = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders Version with each dotted component tinted for terminal
// output. With colors disabled it renders Version unchanged.
func Colored() string {
	parts := strings.SplitN(Version, ".", len(componentTints))
	for i := range parts {
		parts[i] = componentTints[i].Sprint(parts[i])
	}
	return strings.Join(parts, ".")
}
