// Package patch implements the line-level rewrites applied to freshly
// generated sources and manifests: exact-index replacement, structural
// single-line targets, feature-flag augmentation and entry-point block
// replacement.
package patch

import (
	"strconv"
	"strings"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/textfile"
)

// ReplaceLine returns a copy of lines with the line at index replaced
// verbatim. An index outside the slice leaves every line unchanged.
func ReplaceLine(lines []string, index int, replacement string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	if index >= 0 && index < len(out) {
		out[index] = replacement
	}
	return out
}

// Matcher reports whether a line is a patch target.
type Matcher func(line string) bool

// Contains matches lines containing sub.
func Contains(sub string) Matcher {
	return func(line string) bool { return strings.Contains(line, sub) }
}

// HasPrefix matches lines that start with prefix after leading whitespace.
func HasPrefix(prefix string) Matcher {
	return func(line string) bool {
		return strings.HasPrefix(strings.TrimLeft(line, " \t"), prefix)
	}
}

// AllOf matches lines accepted by every matcher.
func AllOf(ms ...Matcher) Matcher {
	return func(line string) bool {
		for _, m := range ms {
			if !m(line) {
				return false
			}
		}
		return true
	}
}

// Region narrows a search to lines[start:end].
type Region func(lines []string) (start, end int, ok bool)

// Section returns a Region covering the lines after a "[name]" header up to
// the next header line.
func Section(name string) Region {
	header := "[" + name + "]"
	return func(lines []string) (int, int, bool) {
		start := -1
		for i, l := range lines {
			t := strings.TrimSpace(l)
			if start < 0 {
				if t == header {
					start = i + 1
				}
				continue
			}
			if strings.HasPrefix(t, "[") {
				return start, i, true
			}
		}
		if start < 0 {
			return 0, 0, false
		}
		return start, len(lines), true
	}
}

// Locate returns the index of the only line in region (or in the whole
// slice when region is nil) that m accepts.
func Locate(lines []string, region Region, m Matcher) (int, error) {
	start, end := 0, len(lines)
	if region != nil {
		var ok bool
		start, end, ok = region(lines)
		if !ok {
			return -1, errors.New(errors.EPatchTargetNotFound, "section not found")
		}
	}

	found := -1
	for i := start; i < end; i++ {
		if !m(lines[i]) {
			continue
		}
		if found >= 0 {
			return -1, errors.NewWithDetails(errors.EPatchTargetAmbiguous, "more than one line matches the patch target",
				map[string]string{"lines": strconv.Itoa(found+1) + "," + strconv.Itoa(i+1)})
		}
		found = i
	}
	if found < 0 {
		return -1, errors.New(errors.EPatchTargetNotFound, "no line matches the patch target")
	}
	return found, nil
}

// Literal returns a replacement func that ignores the old line.
func Literal(s string) func(string) string {
	return func(string) string { return s }
}

// Target describes a single-line patch. When Match is set the line is found
// structurally with Locate inside Within; otherwise Index is used as is.
type Target struct {
	Name    string
	Index   int
	Within  Region
	Match   Matcher
	Replace func(old string) string
}

// Apply returns lines with the target line rewritten.
func (t Target) Apply(lines []string) ([]string, error) {
	index := t.Index
	if t.Match != nil {
		i, err := Locate(lines, t.Within, t.Match)
		if err != nil {
			if t.Name != "" {
				err = errors.WithDetail(err, "target", t.Name)
			}
			return nil, err
		}
		index = i
	}
	if index < 0 || index >= len(lines) {
		return append([]string(nil), lines...), nil
	}
	return ReplaceLine(lines, index, t.Replace(lines[index])), nil
}

// Edit is a rewrite that can fail. Target and BlockRewrite are Edits.
type Edit interface {
	Apply(lines []string) ([]string, error)
}

// ApplyFile applies edits in order to a single read of path and writes
// the result once. Nothing is written if any edit fails.
func ApplyFile(fsys fs.FS, path string, edits ...Edit) error {
	return textfile.Rewrite(fsys, path, func(lines []string) ([]string, error) {
		var err error
		for _, e := range edits {
			lines, err = e.Apply(lines)
			if err != nil {
				return nil, err
			}
		}
		return lines, nil
	})
}
