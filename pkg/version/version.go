// Package version provides the library release version and the file
// format versions, with parsing and compatibility helpers.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Release is the library version reported by the command-line tools.
const Release = "0.3.0"

// TraceFormat is the trace file format version written by
// trace.FileTracer.
const TraceFormat = "1.0"

// ScenarioFormat is the scenario file format version accepted by the
// scenario loader.
const ScenarioFormat = "1.0"

// Version represents a parsed "major.minor" format version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}
