// Package semver models the narrow version grammar used by release manifests:
// a three-component release number with an optional trailing ".devN" counter.
// Arbitrary semver pre-release or build-metadata suffixes are rejected on
// purpose; the release workflow only ever produces versions of this shape.
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an immutable parsed version. Dev < 0 means "not a dev
// pre-release"; a final release sorts after every dev pre-release of the
// same release triple.
type Version struct {
	Major int
	Minor int
	Patch int
	Dev   int // -1 when absent
}

// Part selects which component Bump increments.
type Part string

const (
	PartPatch Part = "patch"
	PartMinor Part = "minor"
	PartMajor Part = "major"
	PartDev   Part = "dev"
)

// ParsePart validates a bump directive string.
func ParsePart(s string) (Part, error) {
	switch Part(s) {
	case PartPatch, PartMinor, PartMajor, PartDev:
		return Part(s), nil
	}
	return "", fmt.Errorf("unknown bump part %q (want patch, minor, major, or dev)", s)
}

// ParseError reports a malformed version string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
}

// Parse accepts "X.Y.Z" or "X.Y.Z.devN" where X, Y, Z, N are non-negative
// integers. Anything else fails with *ParseError.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 && len(parts) != 4 {
		return Version{}, &ParseError{Input: s, Reason: "want X.Y.Z or X.Y.Z.devN"}
	}

	var nums [3]int
	for i, p := range parts[:3] {
		n, err := parseComponent(p)
		if err != nil {
			return Version{}, &ParseError{Input: s, Reason: fmt.Sprintf("release component %q is not a non-negative integer", p)}
		}
		nums[i] = n
	}

	v := Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Dev: -1}

	if len(parts) == 4 {
		suffix := parts[3]
		rest, ok := strings.CutPrefix(suffix, "dev")
		if !ok {
			return Version{}, &ParseError{Input: s, Reason: fmt.Sprintf("unsupported suffix %q (only .devN is accepted)", suffix)}
		}
		n, err := parseComponent(rest)
		if err != nil {
			return Version{}, &ParseError{Input: s, Reason: fmt.Sprintf("dev counter %q is not a non-negative integer", rest)}
		}
		v.Dev = n
	}
	return v, nil
}

func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("not a non-negative integer")
	}
	return n, nil
}

// IsDev reports whether v carries a dev pre-release counter.
func (v Version) IsDev() bool { return v.Dev >= 0 }

// String renders the version; Parse(v.String()) == v for every valid v.
func (v Version) String() string {
	if v.IsDev() {
		return fmt.Sprintf("%d.%d.%d.dev%d", v.Major, v.Minor, v.Patch, v.Dev)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders versions: release triples lexicographically, and a final
// release after any dev pre-release with the same triple. Returns -1, 0, or 1.
func (v Version) Compare(o Version) int {
	if c := cmpInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmpInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmpInt(v.Patch, o.Patch); c != 0 {
		return c
	}
	switch {
	case v.IsDev() == o.IsDev():
		if !v.IsDev() {
			return 0
		}
		return cmpInt(v.Dev, o.Dev)
	case v.IsDev():
		return -1 // dev pre-release sorts before the final release
	default:
		return 1
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Bump returns the successor version for the given part. Release bumps
// (patch/minor/major) increment their component, zero the lower ones, and
// clear the dev counter. A dev bump increments the counter in place, or
// starts it at 1 when absent, leaving the release triple untouched.
func (v Version) Bump(part Part) (Version, error) {
	switch part {
	case PartPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1, Dev: -1}, nil
	case PartMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1, Patch: 0, Dev: -1}, nil
	case PartMajor:
		return Version{Major: v.Major + 1, Minor: 0, Patch: 0, Dev: -1}, nil
	case PartDev:
		next := v
		if v.IsDev() {
			next.Dev = v.Dev + 1
		} else {
			next.Dev = 1
		}
		return next, nil
	}
	return Version{}, fmt.Errorf("unknown bump part %q", part)
}

// StartNextDevCycle opens the development line that follows a release:
// patch+1 with dev reset to 0. This is distinct from Bump(dev), which only
// advances the counter within the current line.
func (v Version) StartNextDevCycle() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1, Dev: 0}
}
