package fs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const tmpPattern = ".ceres-tmp-*"

// WriteFileAtomic writes data to path atomically using a temp file + rename.
// The temp file is created in the same directory as path to ensure atomic rename on POSIX.
// If the operation fails, the original file (if any) is left unchanged.
// The caller must ensure the parent directory exists.
func WriteFileAtomic(fs FS, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpPath, w, err := fs.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}

	success := false
	defer func() {
		if !success {
			fs.Remove(tmpPath)
		}
	}()

	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	if err := fs.Chmod(tmpPath, perm); err != nil {
		return err
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}

// CopyFile copies src to dst byte for byte, keeping the source permission bits.
// The destination is written atomically.
func CopyFile(fs FS, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	data, err := fs.ReadFile(src)
	if err != nil {
		return err
	}
	return WriteFileAtomic(fs, dst, data, info.Mode().Perm())
}

// WriteJSONAtomic marshals v as indented JSON with a trailing newline and
// writes it with WriteFileAtomic.
func WriteJSONAtomic(fs FS, path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return WriteFileAtomic(fs, path, data, perm)
}
