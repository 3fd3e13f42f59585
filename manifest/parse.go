package manifest

import (
	"regexp"
	"strings"
)

// Fields is the lenient read-side projection of a manifest. Only the fields
// the translation engine tracks; everything else in the document is ignored.
type Fields struct {
	UniqueID    string
	Name        string
	Description string
	UpdateKeys  []string
}

var (
	uniqueIDPattern = regexp.MustCompile(`(?i)"UniqueID"\s*:\s*"([^"]*)"`)
	namePattern     = regexp.MustCompile(`"Name"\s*:\s*"([^"]*)"`)
	descPattern     = regexp.MustCompile(`"Description"\s*:\s*"([^"]*)"`)
	nexusPattern    = regexp.MustCompile(`^Nexus:(\d+)$`)
)

// Parse extracts the tracked fields from manifest text. Comments are
// stripped before matching so a commented-out "Name" line is not mistaken
// for the real one. Parse never fails: missing fields stay empty and the
// caller decides what to do about them.
func Parse(text string) Fields {
	clean := StripComments(StripBOM(text))

	var f Fields
	if m := uniqueIDPattern.FindStringSubmatch(clean); m != nil {
		f.UniqueID = m[1]
	}
	if m := namePattern.FindStringSubmatch(clean); m != nil {
		f.Name = m[1]
	}
	if m := descPattern.FindStringSubmatch(clean); m != nil {
		f.Description = m[1]
	}
	if m := listPattern("UpdateKeys").FindStringSubmatch(clean); m != nil {
		for _, t := range listTokenPattern.FindAllStringSubmatch(m[1], -1) {
			f.UpdateKeys = append(f.UpdateKeys, t[1])
		}
	}
	return f
}

// NexusID returns the numeric mod-repository id from an UpdateKeys token
// list ("Nexus:2400" -> "2400"), or "" when no Nexus key is present.
func NexusID(updateKeys []string) string {
	for _, k := range updateKeys {
		if m := nexusPattern.FindStringSubmatch(strings.TrimSpace(k)); m != nil {
			return m[1]
		}
	}
	return ""
}

// StripBOM removes a leading UTF-8 byte order mark. Windows-authored
// manifests carry one often enough that every read path goes through here.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// StripComments removes // line comments and /* */ block comments while
// leaving string literals alone, so a Description containing "https://..."
// survives. Used only on the read path; writes never reserialize.
func StripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				i++
			}
			i++ // skip the trailing '/' (loop adds one more)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
