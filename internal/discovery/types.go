package discovery

import "time"

// DiscoveredFile represents a SQL script discovered during filesystem traversal
type DiscoveredFile struct {
	Path         string    // Absolute path to file
	RelativePath string    // Path relative to search root
	Name         string    // Journal key: RelativePath with '/' separators
	Type         FileType  // Script or Rollback
	ModTime      time.Time // Last modification time
}

// FileType indicates whether a file is applied by an upgrade or only listed
type FileType int

const (
	FileTypeScript   FileType = iota // Regular forward script
	FileTypeRollback                 // Matches *.undo.*.sql or *_down.sql, never applied
)

// String returns a string representation of FileType
func (ft FileType) String() string {
	switch ft {
	case FileTypeScript:
		return "script"
	case FileTypeRollback:
		return "rollback"
	default:
		return "unknown"
	}
}
