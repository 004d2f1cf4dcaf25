package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/cybertec-postgresql/pgup/internal/discovery"
)

// ParsedScript represents a script file split into executable statements
type ParsedScript struct {
	File       *discovery.DiscoveredFile
	Statements []*Statement
}

// Statement represents a single SQL statement with location information
type Statement struct {
	Index     int    // 0-based position among the script's statements
	RawSQL    string // Trimmed statement text, without the terminating ';'
	StartPos  int    // Byte offset of RawSQL within the script
	StartLine int    // 1-indexed line number
	EndLine   int    // 1-indexed line number
}

// Keyword returns the first word of the statement, upper-cased, skipping
// leading comments. It is used for log output only.
func (s *Statement) Keyword() string {
	sql := s.RawSQL
	for {
		sql = strings.TrimLeft(sql, " \t\r\n\f\v")
		switch {
		case strings.HasPrefix(sql, "--"):
			i := strings.IndexAny(sql, "\r\n")
			if i < 0 {
				return ""
			}
			sql = sql[i:]
			continue
		case strings.HasPrefix(sql, "/*"):
			i := strings.Index(sql, "*/")
			if i < 0 {
				return ""
			}
			sql = sql[i+2:]
			continue
		}
		break
	}
	end := 0
	for end < len(sql) && isDolqCont(sql[end]) {
		end++
	}
	return strings.ToUpper(sql[:end])
}

// LineOfPosition converts a 1-based character position inside RawSQL, as
// reported by the server in an error, to a 1-indexed script line.
func (s *Statement) LineOfPosition(position int) int {
	if position <= 1 {
		return s.StartLine
	}
	line := s.StartLine
	chars := 1
	for _, r := range s.RawSQL {
		if chars >= position {
			break
		}
		if r == '\n' {
			line++
		}
		chars++
	}
	return line
}

// Preview returns the statement text shortened to at most n characters on
// a single line, suitable for log messages.
func (s *Statement) Preview(n int) string {
	text := strings.Join(strings.Fields(s.RawSQL), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "…"
}
