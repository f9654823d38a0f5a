// Package substitute replaces placeholder tokens in template contents and
// filenames.
//
// Tokens use the $TOKEN syntax with upper-case names, e.g. $PROJECT_NAME.
// Tokens without a mapped value are left untouched so partially filled
// templates remain readable, and running the engine over already-substituted
// output is a no-op.
package substitute

import (
	"bytes"
	"path"
	"regexp"
	"strings"
)

// tokenPattern matches $TOKEN markers. A token is an upper-case identifier;
// the maximal run is taken so $PROJECT_NAMES is one token, not $PROJECT_NAME
// followed by "S".
var tokenPattern = regexp.MustCompile(`\$([A-Z][A-Z0-9_]*)`)

// Map resolves placeholder tokens to their values.
type Map map[string]string

// Apply substitutes every known token in text. Unknown tokens are preserved.
func (m Map) Apply(text string) string {
	if len(m) == 0 || !strings.Contains(text, "$") {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		if value, ok := m[match[1:]]; ok {
			return value
		}
		return match
	})
}

// ApplyBytes substitutes tokens in a byte slice, returning the input slice
// unchanged when no token is present.
func (m Map) ApplyBytes(body []byte) []byte {
	if len(m) == 0 || !bytes.ContainsRune(body, '$') {
		return body
	}
	return []byte(m.Apply(string(body)))
}

// ApplyPath substitutes tokens in each segment of a slash-separated relative
// path, so templates can carry project-specific file and directory names.
func (m Map) ApplyPath(rel string) string {
	if !strings.Contains(rel, "$") {
		return rel
	}
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = m.Apply(seg)
	}
	return path.Join(segments...)
}

// Tokens returns the distinct token names present in text, in order of first
// appearance.
func Tokens(text string) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, match := range tokenPattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// binaryExtensions lists file suffixes that are never substituted.
var binaryExtensions = map[string]struct{}{
	".png":   {},
	".jpg":   {},
	".jpeg":  {},
	".gif":   {},
	".ico":   {},
	".pdf":   {},
	".zip":   {},
	".gz":    {},
	".woff":  {},
	".woff2": {},
	".ttf":   {},
	".eot":   {},
	".otf":   {},
}

const sniffLen = 8000

// IsBinary reports whether a template entry should be passed through
// unmodified, judged by extension first and a NUL-byte sniff second.
func IsBinary(name string, body []byte) bool {
	ext := strings.ToLower(path.Ext(name))
	if _, ok := binaryExtensions[ext]; ok {
		return true
	}
	probe := body
	if len(probe) > sniffLen {
		probe = probe[:sniffLen]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
