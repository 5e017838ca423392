package util

import (
	"errors"
	"strings"
)

// ErrUnsafeSegment is returned for names that cannot become a key segment.
var ErrUnsafeSegment = errors.New("unsafe key segment")

const maxSegmentLen = 64

// KeySegment turns name into one object-key segment. Characters outside
// [A-Za-z0-9._-] become underscores and the result is capped at 64 bytes.
// Empty names and anything containing ".." are rejected.
func KeySegment(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrUnsafeSegment
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if len(s) > maxSegmentLen {
		s = s[:maxSegmentLen]
	}
	return s, nil
}
