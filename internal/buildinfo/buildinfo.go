// Package buildinfo reports the version of the running binary, reading
// whatever the Go toolchain recorded at build time (module version, VCS
// revision, dirty flag) the way the teacher's own version reporting does.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strconv"
)

// Version is set at build time via `-ldflags "-X .../internal/buildinfo.Version=X"`.
// Empty means "use the module version the toolchain embedded instead."
var Version string

func settingOrDefault(bi *debug.BuildInfo, key, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}

	return defaultValue
}

// String formats a one-line version banner: "xim-wayland <version> (revision <rev>, built at <time>)".
func String() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "xim-wayland (unknown build)"
	}

	buildTime := settingOrDefault(bi, "vcs.time", "UNKNOWN")
	revision := settingOrDefault(bi, "vcs.revision", "UNKNOWN")

	dirtyStr := settingOrDefault(bi, "vcs.modified", "")
	if dirty, err := strconv.ParseBool(dirtyStr); err == nil && dirty {
		revision += "-dirty"
	}

	version := Version
	if version == "" {
		version = bi.Main.Version
	}

	if version == "" || version == "(devel)" {
		version = "devel"
	}

	return fmt.Sprintf("xim-wayland %s (revision %s, built at %s)", version, revision, buildTime)
}
