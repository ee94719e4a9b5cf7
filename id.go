package entity

import "strings"

// EscapeSegment escapes literal dots so a key can be embedded in an ID.
func EscapeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, `\`, `\\`)
	return strings.ReplaceAll(segment, ".", `\.`)
}

// ExtendID appends key to parent, escaping dots inside key. An empty parent
// yields the escaped key alone.
func ExtendID(parent, key string) string {
	if parent == "" {
		return EscapeSegment(key)
	}
	return parent + "." + EscapeSegment(key)
}

// SplitID splits an ID into its unescaped segments.
func SplitID(id string) []string {
	if id == "" {
		return nil
	}
	var (
		segments []string
		current  strings.Builder
		escaped  bool
	)
	for _, r := range id {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '.':
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(segments, current.String())
}
