package discovery

import (
	"path/filepath"
	"strings"
)

// ClassifyFile determines if a file is a forward or rollback script based on naming convention
func ClassifyFile(filename string) FileType {
	lower := strings.ToLower(filename)

	if strings.Contains(lower, ".undo.") || strings.HasSuffix(lower, "_down.sql") {
		return FileTypeRollback
	}

	return FileTypeScript
}

// ClassifyPath determines file type from a full path
func ClassifyPath(path string) FileType {
	return ClassifyFile(filepath.Base(path))
}
