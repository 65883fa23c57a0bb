package versionid

import (
	"strconv"
	"strings"
)

// Version is a parsed dotted numeric version such as 4.9.2.
type Version struct {
	raw   string
	parts []int
}

// ParseVersion accepts only non-empty dot separated non-negative integers.
func ParseVersion(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, false
	}
	segs := strings.Split(s, ".")
	parts := make([]int, 0, len(segs))
	for _, seg := range segs {
		if seg == "" {
			return Version{}, false
		}
		for _, r := range seg {
			if r < '0' || r > '9' {
				return Version{}, false
			}
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			return Version{}, false
		}
		parts = append(parts, n)
	}
	return Version{raw: s, parts: parts}, true
}

func (v Version) String() string { return v.raw }

func (v Version) component(i int) int {
	if i < len(v.parts) {
		return v.parts[i]
	}
	return 0
}

// Compare orders two versions component by component, padding the shorter
// one with zeros.
func (v Version) Compare(o Version) int {
	n := len(v.parts)
	if len(o.parts) > n {
		n = len(o.parts)
	}
	for i := 0; i < n; i++ {
		a, b := v.component(i), o.component(i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

// CompareVersions compares two version strings. Malformed input sorts before
// anything well formed.
func CompareVersions(a, b string) int {
	va, okA := ParseVersion(a)
	vb, okB := ParseVersion(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return va.Compare(vb)
}

// Lowest returns the oldest version of the set, or "" for an empty set.
// Versions that compare equal (4.7 and 4.7.0) resolve to the lexically
// smaller string.
func Lowest(versions VersionSet) string {
	var best Version
	found := false
	for raw := range versions {
		v, ok := ParseVersion(raw)
		if !ok {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		c := v.Compare(best)
		if c < 0 || (c == 0 && v.raw < best.raw) {
			best = v
		}
	}
	return best.raw
}

// Highest mirrors Lowest.
func Highest(versions VersionSet) string {
	var best Version
	found := false
	for raw := range versions {
		v, ok := ParseVersion(raw)
		if !ok {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		c := v.Compare(best)
		if c > 0 || (c == 0 && v.raw < best.raw) {
			best = v
		}
	}
	return best.raw
}

func ShareMajor(a, b string) bool {
	return shareLeading(a, b, 1)
}

func ShareMajorMinor(a, b string) bool {
	return shareLeading(a, b, 2)
}

func shareLeading(a, b string, n int) bool {
	va, okA := ParseVersion(a)
	vb, okB := ParseVersion(b)
	if !okA || !okB {
		return false
	}
	for i := 0; i < n; i++ {
		if va.component(i) != vb.component(i) {
			return false
		}
	}
	return true
}
