// Package manifest edits and reads mod manifest files as raw text.
//
// Manifests are user-authored JSON-with-comments documents kept under the
// user's own version control, so a parse/re-serialize round trip is off the
// table: it would drop comments, reorder fields, and normalise whitespace,
// turning every cosmetic byte into diff noise. All mutations here are
// surgical regex substitutions that touch only the value span of the target
// field and leave every other byte of the document intact.
package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

// AnchorField is the field new list fields are inserted after when they do
// not exist yet. Every valid manifest has it.
const AnchorField = "UniqueID"

// fieldPattern builds the pattern matching `"<field>" : "<value>"` with the
// value as capture group 1. The value match stops at the first quote, so it
// never crosses into the next field.
func fieldPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*:\s*"([^"]*)"`)
}

// HasField reports whether the document contains a string field named field.
func HasField(text, field string) bool {
	return fieldPattern(field).MatchString(text)
}

// ReplaceField replaces the value of the first occurrence of the named
// string field with value, JSON-escaping it. Everything outside the value
// span, including comments and whitespace, is byte-identical in the result.
// If the field is absent the input is returned unchanged; callers that need
// to distinguish should check HasField first.
func ReplaceField(text, field, value string) string {
	loc := fieldPattern(field).FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[2]] + EscapeString(value) + text[loc[3]:]
}

// FieldValue returns the raw value of the first occurrence of the named
// string field, and whether it was found. The value is returned as stored,
// escapes included.
func FieldValue(text, field string) (string, bool) {
	m := fieldPattern(field).FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EscapeString escapes s for embedding inside a JSON string literal:
// quotes, backslashes, and control characters.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

var listTokenPattern = regexp.MustCompile(`"([^"]*)"`)

// listPattern matches `"<field>" : [ ... ]` with the bracket interior as
// capture group 1. Non-greedy so it stops at the first closing bracket.
func listPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)"` + regexp.QuoteMeta(field) + `"\s*:\s*\[(.*?)\]`)
}

// UpsertListKey ensures the bracketed list field contains exactly one token
// `"<keyPrefix>:<keyValue>"`. Idempotent:
//
//   - a token already starting with keyPrefix is replaced in place;
//   - otherwise the token is appended after the last existing token, or with
//     a leading space when the list is empty;
//   - a missing list field is inserted after the UniqueID anchor, with the
//     comma placed so the document stays syntactically valid whether or not
//     the anchor is the last field;
//   - a missing anchor makes this a no-op.
func UpsertListKey(text, listField, keyPrefix, keyValue string) string {
	token := `"` + keyPrefix + ":" + keyValue + `"`

	loc := listPattern(listField).FindStringSubmatchIndex(text)
	if loc == nil {
		return insertListField(text, listField, token)
	}

	innerStart, innerEnd := loc[2], loc[3]
	inner := text[innerStart:innerEnd]

	// Replace an existing token with the same provider prefix in place.
	prefixRe := regexp.MustCompile(`"` + regexp.QuoteMeta(keyPrefix) + `:[^"]*"`)
	if ploc := prefixRe.FindStringIndex(inner); ploc != nil {
		return text[:innerStart+ploc[0]] + token + text[innerStart+ploc[1]:]
	}

	if strings.TrimSpace(inner) == "" {
		// Empty list: a leading space before the first token.
		return text[:innerStart] + " " + token + text[innerEnd:]
	}

	// Append after the last existing token, keeping whatever trailing
	// whitespace the author left before the closing bracket.
	if tloc := lastQuoteEnd(inner); tloc >= 0 {
		at := innerStart + tloc
		return text[:at] + ", " + token + text[at:]
	}
	return text[:innerEnd] + ", " + token + text[innerEnd:]
}

// lastQuoteEnd returns the index just past the last '"' in s, or -1.
func lastQuoteEnd(s string) int {
	i := strings.LastIndexByte(s, '"')
	if i < 0 {
		return -1
	}
	return i + 1
}

// insertListField inserts `"<listField>": [ <token> ]` immediately after the
// UniqueID anchor field.
func insertListField(text, listField, token string) string {
	loc := fieldPattern(AnchorField).FindStringIndex(text)
	if loc == nil {
		return text
	}

	// Look past horizontal whitespace for a trailing comma on the anchor.
	j := loc[1]
	for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
		j++
	}

	field := `"` + listField + `": [ ` + token + ` ]`
	if j < len(text) && text[j] == ',' {
		// Anchor has a trailing comma: slot the new field in after it,
		// carrying its own trailing comma.
		return text[:j+1] + "\n    " + field + "," + text[j+1:]
	}
	// Anchor is the last field: leading comma, no trailing one.
	return text[:loc[1]] + ",\n    " + field + text[loc[1]:]
}
