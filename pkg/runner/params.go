package runner

import (
	"github.com/rotisserie/eris"
)

// ErrParamCount is returned when the number of arguments doesn't match the query's
// placeholders.
var ErrParamCount = eris.New("wrong number of parameters")

// ParamCountError reports a mismatch between expected placeholders and given arguments.
func ParamCountError(expected, given int) error {
	return eris.Wrapf(ErrParamCount, "expected %d, was given %d", expected, given)
}

// CountParams returns the number of bind parameters ($1, $2, ...) in query; the highest
// number counts. PostgreSQL only binds numbered placeholders, so ? (also a jsonb operator)
// is not a parameter. String literals (including E'' escape strings), quoted
// identifiers, dollar-quoted bodies and comments are skipped.
func CountParams(query string) int {
	numbered := 0

	for idx := 0; idx < len(query); idx++ {
		switch ch := query[idx]; ch {
		case '\'':
			if idx > 0 && (query[idx-1] == 'E' || query[idx-1] == 'e') && (idx < 2 || !isIdentChar(query[idx-2])) {
				idx = skipEscapeString(query, idx+1)
			} else {
				idx = skipUntil(query, idx+1, "'")
			}
		case '"':
			idx = skipUntil(query, idx+1, `"`)
		case '-':
			if idx+1 < len(query) && query[idx+1] == '-' {
				idx = skipUntil(query, idx+2, "\n")
			}
		case '/':
			if idx+1 < len(query) && query[idx+1] == '*' {
				idx = skipUntil(query, idx+2, "*/")
			}
		case '$':
			if idx > 0 && isIdentChar(query[idx-1]) {
				// part of an identifier such as foo$1
				continue
			}

			if tag, ok := dollarTag(query, idx); ok {
				idx = skipUntil(query, idx+len(tag), tag)
				continue
			}

			num := 0
			end := idx + 1
			for end < len(query) && query[end] >= '0' && query[end] <= '9' {
				num = num*10 + int(query[end]-'0')
				end++
			}

			if end > idx+1 {
				if num > numbered {
					numbered = num
				}
				idx = end - 1
			}
		}
	}

	return numbered
}

// dollarTag returns the opening delimiter ($$ or $tag$) of a dollar-quoted string
// starting at start.
func dollarTag(query string, start int) (string, bool) {
	end := start + 1
	if end < len(query) && query[end] >= '0' && query[end] <= '9' {
		return "", false
	}

	for end < len(query) && isIdentChar(query[end]) && query[end] != '$' {
		end++
	}

	if end < len(query) && query[end] == '$' {
		return query[start : end+1], true
	}
	return "", false
}

// skipEscapeString returns the index of the quote closing an E'' string whose content
// starts at start. Backslashes escape the following byte.
func skipEscapeString(query string, start int) int {
	for idx := start; idx < len(query); idx++ {
		switch query[idx] {
		case '\\':
			idx++
		case '\'':
			if idx+1 < len(query) && query[idx+1] == '\'' {
				idx++
				continue
			}
			return idx
		}
	}
	return len(query) - 1
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ch == '$' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
		ch >= 0x80
}

// skipUntil returns the index of the last byte of the first occurrence of term at or
// after start, or the last index of query if term doesn't occur.
func skipUntil(query string, start int, term string) int {
	for idx := start; idx+len(term) <= len(query); idx++ {
		if query[idx:idx+len(term)] == term {
			return idx + len(term) - 1
		}
	}
	return len(query) - 1
}
