// Package textfile reads a generated text file fully into memory as lines and
// writes it back in one atomic step.
package textfile

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
)

// File is a fully materialized text file.
type File struct {
	Path  string
	Lines []string
	Perm  os.FileMode
}

// Read loads path and splits it into lines. Content that is not valid UTF-8
// is rejected with E_IO.
func Read(fsys fs.FS, path string) (*File, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EIO, "failed to read file", err, map[string]string{"path": path})
	}
	if !utf8.Valid(data) {
		return nil, errors.NewWithDetails(errors.EIO, "file is not valid UTF-8 text", map[string]string{"path": path})
	}

	perm := os.FileMode(0644)
	if info, err := fsys.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	return &File{Path: path, Lines: Split(string(data)), Perm: perm}, nil
}

// Write replaces the file on disk with f.Lines, each terminated by "\n".
// The old content stays in place if the write fails.
func (f *File) Write(fsys fs.FS) error {
	if err := fs.WriteFileAtomic(fsys, f.Path, []byte(Join(f.Lines)), f.Perm); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to write file", err, map[string]string{"path": f.Path})
	}
	return nil
}

// Rewrite reads path, passes its lines through transform and writes the
// result back. Nothing is written when transform fails.
func Rewrite(fsys fs.FS, path string, transform func([]string) ([]string, error)) error {
	f, err := Read(fsys, path)
	if err != nil {
		return err
	}
	lines, err := transform(f.Lines)
	if err != nil {
		return errors.WithDetail(err, "path", path)
	}
	f.Lines = lines
	return f.Write(fsys)
}

// Split breaks content into lines. A trailing "\r" is stripped from each
// line and a final newline does not produce an empty trailing line.
func Split(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Join renders lines with a newline after each one.
func Join(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
