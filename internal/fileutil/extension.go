package fileutil

import "strings"

// ExtensionSet is a set of accepted extensions, stored without a leading dot.
type ExtensionSet map[string]struct{}

// NewExtensionSet builds a set from exts. A single leading "." is trimmed and
// empty strings are ignored. Duplicates collapse, so a file is accepted at most once.
func NewExtensionSet(exts []string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			continue
		}
		set[ext] = struct{}{}
	}
	return set
}

// Contains reports whether ext is in the set.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s[ext]
	return ok
}

// SplitExtension returns the substring of name after its final ".".
// hasDot is false when name contains no "." at all.
func SplitExtension(name string) (ext string, hasDot bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}
	return name[i+1:], true
}

// MatchExtension reports whether the base name matches one of the set's extensions.
func MatchExtension(name string, set ExtensionSet) (ext string, ok bool) {
	ext, hasDot := SplitExtension(name)
	if !hasDot {
		return "", false
	}
	return ext, set.Contains(ext)
}
