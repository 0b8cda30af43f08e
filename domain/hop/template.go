package hop

import (
	"strings"
)

// Marker is the substitution marker recognized in route templates.
const Marker = "{{query}}"

// Expand substitutes the percent-encoded argument payload into the first
// occurrence of the query marker. Args are joined with single spaces before
// encoding. A template without the marker is returned unchanged and acts as
// a static shortcut. When the marker appears more than once, only the first
// occurrence is substituted; the rest stay literal.
func Expand(template string, args []string) string {
	if !strings.Contains(template, Marker) {
		return template
	}
	payload := EncodeQuery(strings.Join(args, " "))
	return strings.Replace(template, Marker, payload, 1)
}

const upperhex = "0123456789ABCDEF"

// EncodeQuery percent-encodes s for embedding in a URL query component.
// Every byte outside the unreserved set (letters, digits, "-", ".", "_",
// "~") is encoded, including spaces, "&", "#", "%", "?", "/" and all
// non-ASCII bytes.
func EncodeQuery(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z',
		'A' <= c && c <= 'Z',
		'0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return false
}
