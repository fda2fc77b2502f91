package models

import "fmt"

// NotAvailable stands in for build metadata the linker did not set.
const NotAvailable = "N/A"

// BuildInfo identifies a syncctl binary. The values come from -ldflags -X.
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

// NewBuildInfo returns the build info with every empty value replaced by
// [NotAvailable].
func NewBuildInfo(version, date, commit string) BuildInfo {
	orNA := func(s string) string {
		if s == "" {
			return NotAvailable
		}
		return s
	}
	return BuildInfo{Version: orNA(version), Date: orNA(date), Commit: orNA(commit)}
}

// String renders the one-line form used by the version command, e.g.
// "v1.2.0 (commit 3f2a9c1, built 2026-03-01)".
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.Date)
}
