// Package version reports seqeth build information and parses node
// client version strings.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Build metadata, set with -ldflags "-X github.com/mrz1836/seqeth/internal/version.Version=v1.2.3".
//
//nolint:gochecknoglobals // set by the linker
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build info. Values missing from ldflags are filled from
// the module build info when available.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if IsDev(info.Version) && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// IsDev reports whether v names a development build rather than a release.
func IsDev(v string) bool {
	v = strings.TrimPrefix(v, "v")
	return v == "dev" || v == "" || isCommitHash(v)
}

// Client is a parsed web3_clientVersion string.
type Client struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Platform string `json:"platform,omitempty"`
	Raw      string `json:"raw"`
}

// ParseClient splits a node version string such as
// "Geth/v1.13.5-stable-916d6a44/linux-amd64/go1.21.4". Nodes that report
// a bare name keep it in Name.
func ParseClient(raw string) Client {
	c := Client{Raw: raw}
	parts := strings.Split(strings.TrimSpace(raw), "/")
	c.Name = parts[0]
	if len(parts) > 1 {
		c.Version = NormalizeVersion(parts[1])
	}
	if len(parts) > 2 {
		c.Platform = parts[2]
	}
	return c
}

// NormalizeVersion strips a leading "v", whitespace, and any pre-release
// or build suffix: " v1.13.5-stable+abc" becomes "1.13.5".
func NormalizeVersion(version string) string {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}
	for {
		trimmed := strings.TrimLeft(strings.TrimSpace(version), "v")
		if trimmed == version {
			break
		}
		version = trimmed
	}
	return version
}

// isCommitHash reports whether s looks like a short or full git SHA. At
// least one letter is required so date-like numbers don't match.
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")
	if len(s) < 7 || len(s) > 40 {
		return false
	}

	hasLetter := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F'):
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}
