package parser

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/cybertec-postgresql/pgup/internal/discovery"
)

// Parse reads a script file and splits it into statements
func Parse(file *discovery.DiscoveredFile, standardConformingStrings bool) (*ParsedScript, error) {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &ParsedScript{
		File:       file,
		Statements: ParseStatements(string(content), standardConformingStrings),
	}, nil
}

// ParseFile is a convenience function that parses a file path directly
func ParseFile(filePath string, standardConformingStrings bool) (*ParsedScript, error) {
	file := &discovery.DiscoveredFile{
		Path: filePath,
		Name: filePath,
		Type: discovery.ClassifyPath(filePath),
	}
	return Parse(file, standardConformingStrings)
}

// ParseStatements splits SQL text into trimmed, non-empty statements that
// carry their position in the original text.
func ParseStatements(sql string, standardConformingStrings bool) []*Statement {
	var statements []*Statement

	for _, seg := range Segments(sql, standardConformingStrings) {
		raw := strings.TrimSpace(seg.Text)
		if raw == "" {
			continue
		}
		lead := len(seg.Text) - len(strings.TrimLeftFunc(seg.Text, unicode.IsSpace))
		startPos := seg.Start + lead

		statements = append(statements, &Statement{
			Index:     len(statements),
			RawSQL:    raw,
			StartPos:  startPos,
			StartLine: calculateLineNumber(sql, startPos),
			EndLine:   calculateLineNumber(sql, startPos+len(raw)-1),
		})
	}

	return statements
}

// ParseSetting interprets a standard_conforming_strings value as reported
// by the server or given in configuration.
func ParseSetting(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid standard_conforming_strings value %q (want on or off)", value)
	}
}

// calculateLineNumber converts a byte offset to a 1-indexed line number
func calculateLineNumber(sql string, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(sql) {
		offset = len(sql)
	}
	return strings.Count(sql[:offset], "\n") + 1
}
