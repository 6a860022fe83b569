// Package store persists the project-side records ceres writes: the PR
// description (.prinfo) and the report of the last gen run.
// Files are written atomically via temp file + rename.
package store

import (
	"path/filepath"
	"time"

	"github.com/mercury-protocol/ceres/internal/fs"
)

// File names inside the project root and the output directory.
const (
	PRInfoFileName    = ".prinfo"
	PRMarkdownName    = "PR.md"
	GenReportFileName = ".ceres-gen.json"
)

// SchemaVersion is written into every record.
const SchemaVersion = "1.0"

// Store handles persistence of project records.
type Store struct {
	FS   fs.FS            // filesystem interface for stubbing
	Root string           // project root
	Now  func() time.Time // injectable clock for deterministic tests
}

// NewStore creates a new Store with the given dependencies.
func NewStore(filesystem fs.FS, root string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{FS: filesystem, Root: root, Now: now}
}

// PRInfoPath returns <root>/.prinfo.
func (s *Store) PRInfoPath() string {
	return filepath.Join(s.Root, PRInfoFileName)
}

// PRMarkdownPath returns <root>/PR.md.
func (s *Store) PRMarkdownPath() string {
	return filepath.Join(s.Root, PRMarkdownName)
}

// GenReportPath returns the report path inside a verifier output directory.
func GenReportPath(outDir string) string {
	return filepath.Join(outDir, GenReportFileName)
}
