package versionid

import "sort"

// VersionSet holds candidate versions. Add refuses malformed strings so a
// set never carries anything the comparator cannot order.
type VersionSet map[string]struct{}

func NewVersionSet(versions ...string) VersionSet {
	s := make(VersionSet, len(versions))
	s.Add(versions...)
	return s
}

func (s VersionSet) Add(versions ...string) {
	for _, raw := range versions {
		v, ok := ParseVersion(raw)
		if !ok {
			continue
		}
		s[v.String()] = struct{}{}
	}
}

func (s VersionSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

func (s VersionSet) Len() int { return len(s) }

func (s VersionSet) Empty() bool { return len(s) == 0 }

// Only returns the sole member of a singleton set.
func (s VersionSet) Only() (string, bool) {
	if len(s) != 1 {
		return "", false
	}
	for v := range s {
		return v, true
	}
	return "", false
}

func (s VersionSet) Intersect(o VersionSet) VersionSet {
	out := VersionSet{}
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	for v := range small {
		if large.Contains(v) {
			out[v] = struct{}{}
		}
	}
	return out
}

func (s VersionSet) Union(o VersionSet) VersionSet {
	out := make(VersionSet, len(s)+len(o))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range o {
		out[v] = struct{}{}
	}
	return out
}

// Filter keeps the members for which keep returns true.
func (s VersionSet) Filter(keep func(string) bool) VersionSet {
	out := VersionSet{}
	for v := range s {
		if keep(v) {
			out[v] = struct{}{}
		}
	}
	return out
}

// Sorted lists the members oldest first.
func (s VersionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := CompareVersions(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i] < out[j]
	})
	return out
}
