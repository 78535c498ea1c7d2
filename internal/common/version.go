package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Version variables injected at build time via ldflags
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// VersionFile is the release metadata written next to the folio binary.
const VersionFile = "folio-version.toml"

// versionInfo is the shape of VersionFile.
type versionInfo struct {
	Version string `toml:"version"`
	Build   string `toml:"build"`
	Commit  string `toml:"commit"`
}

// GetVersion returns the semantic version string
func GetVersion() string {
	return Version
}

// GetFullVersion returns a formatted version string with all build info
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile fills in build info from VersionFile next to the
// binary. A missing or unreadable file leaves the values unchanged.
func LoadVersionFromFile() {
	exe, err := os.Executable()
	if err != nil {
		return
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), VersionFile))
	if err != nil {
		return
	}
	_ = applyVersionInfo(data)
}

// applyVersionInfo only replaces values still at their ldflags defaults.
func applyVersionInfo(data []byte) error {
	var info versionInfo
	if err := toml.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("failed to parse %s: %w", VersionFile, err)
	}
	fillDefault(&Version, "dev", info.Version)
	fillDefault(&Build, "unknown", info.Build)
	fillDefault(&GitCommit, "unknown", info.Commit)
	return nil
}

func fillDefault(dst *string, def, val string) {
	val = strings.TrimSpace(val)
	if *dst == def && val != "" {
		*dst = val
	}
}
