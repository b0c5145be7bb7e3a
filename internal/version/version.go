// Package version holds the build version.
package version

import "runtime/debug"

const defaultVersion = "unknown"

// Version is set at build time via -ldflags; module builds fall back to
// the main module version baked in by the toolchain.
var Version = defaultVersion

func init() {
	if Version != defaultVersion {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}
