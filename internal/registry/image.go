package registry

import (
	"fmt"
	"strings"
)

// ImageName holds both forms of a container image name: the raw value for
// log output and a percent-encoded form safe to use as a URL path segment.
// Both are derived once at parse time.
type ImageName struct {
	Value   string
	Encoded string
}

// NewImageName trims raw and derives its encoded form.
func NewImageName(raw string) ImageName {
	trimmed := strings.TrimSpace(raw)
	return ImageName{
		Value:   trimmed,
		Encoded: encodeSegment(trimmed),
	}
}

// ParseImageNames splits a comma-separated list of image names. Embedded
// commas are not escapable; every comma starts a new name.
func ParseImageNames(s string) []ImageName {
	parts := strings.Split(s, ",")
	names := make([]ImageName, 0, len(parts))
	for _, part := range parts {
		names = append(names, NewImageName(part))
	}
	return names
}

// encodeSegment percent-encodes every byte outside the RFC 3986 unreserved
// set. url.PathEscape is not strict enough here: it leaves sub-delims like
// '$' and '&' alone, and GHCR package routes need names such as "a/b"
// encoded down to a single path segment.
func encodeSegment(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}
