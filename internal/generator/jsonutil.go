package generator

import "strings"

// ExtractJSON returns the first balanced {...} span in content, ignoring
// braces inside JSON strings. Markdown code fences around the object are
// tolerated because the scan starts at the first '{'. It returns "" when no
// balanced object exists.
func ExtractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	for start >= 0 {
		if end := matchBrace(content, start); end > 0 {
			return content[start : end+1]
		}
		next := strings.IndexByte(content[start+1:], '{')
		if next < 0 {
			return ""
		}
		start += next + 1
	}
	return ""
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
