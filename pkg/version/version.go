// Package version reports the agent build and the cross-validation
// protocol version it speaks.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol is the cross-validation protocol version implemented by the agent.
const Protocol = "1.0"

// Build is the agent build identifier, set at link time with
// -ldflags "-X github.com/mash-protocol/crossval-go/pkg/version.Build=v1.2.3".
var Build = "dev"

// ProtocolVersion is a parsed "major.minor" protocol version.
type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (ProtocolVersion, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok || strings.Contains(minor, ".") {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	maj, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}
	mnr, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return ProtocolVersion{Major: uint16(maj), Minor: uint16(mnr)}, nil
}

// Current returns the parsed Protocol version.
func Current() ProtocolVersion {
	v, err := Parse(Protocol)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor".
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if other has the same major version. Step
// numbering and result keys only change across major versions.
func (v ProtocolVersion) Compatible(other ProtocolVersion) bool {
	return v.Major == other.Major
}

// Summary returns a one-line description of the build.
func Summary() string {
	return fmt.Sprintf("crossval-agent %s (protocol %s)", Build, Protocol)
}
