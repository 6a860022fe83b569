package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/pipeline"
)

// GenRecord is the persisted report of the last gen run.
type GenRecord struct {
	SchemaVersion string           `json:"schema_version"`
	FinishedAt    string           `json:"finished_at"`
	Report        *pipeline.Report `json:"report"`
}

// SaveGenReport writes rep to <outDir>/.ceres-gen.json, creating outDir
// if needed.
func (s *Store) SaveGenReport(outDir string, rep *pipeline.Report) error {
	path := GenReportPath(outDir)
	if err := s.FS.MkdirAll(outDir, 0755); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to create output directory", err, map[string]string{"path": outDir})
	}
	rec := GenRecord{
		SchemaVersion: SchemaVersion,
		FinishedAt:    s.Now().UTC().Format(time.RFC3339),
		Report:        rep,
	}
	if err := fs.WriteJSONAtomic(s.FS, path, rec, 0644); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to write gen report", err, map[string]string{"path": path})
	}
	return nil
}

// LoadGenReport reads the last gen report from outDir.
// Returns (nil, false, nil) if there is none.
func LoadGenReport(fsys fs.FS, outDir string) (*GenRecord, bool, error) {
	path := GenReportPath(outDir)
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.WrapWithDetails(errors.EIO, "failed to read gen report", err, map[string]string{"path": path})
	}
	var rec GenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, errors.WrapWithDetails(errors.EIO, "invalid gen report", err, map[string]string{"path": path})
	}
	return &rec, true, nil
}
