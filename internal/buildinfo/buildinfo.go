package buildinfo

import "runtime/debug"

// Set with -ldflags "-X vorp/internal/buildinfo.Version=..."
var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

// Info reports the build stamp. Commit and time fall back to the VCS data
// the Go toolchain embeds when ldflags were not set.
func Info() map[string]string {
    commit, builtAt, goVersion := Commit, BuiltAt, ""
    if bi, ok := debug.ReadBuildInfo(); ok {
        goVersion = bi.GoVersion
        for _, s := range bi.Settings {
            switch s.Key {
            case "vcs.revision":
                if commit == "" { commit = s.Value }
            case "vcs.time":
                if builtAt == "" { builtAt = s.Value }
            }
        }
    }
    return map[string]string{
        "version":   Version,
        "commit":    commit,
        "builtAt":   builtAt,
        "goVersion": goVersion,
    }
}
