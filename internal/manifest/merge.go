package manifest

import (
	"strings"

	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/patch"
	"github.com/mercury-protocol/ceres/internal/textfile"
)

const dependenciesTable = "dependencies"

// Merge adds deps to the [dependencies] table of lines, creating the table
// at the end of the file when it is missing.
//
// A declaration whose key is already in the table replaces that line in
// place. Comment lines already present verbatim are skipped and blank lines
// are not carried over, so merging the same list twice changes nothing.
func Merge(lines []string, deps []string) []string {
	out := append([]string(nil), lines...)

	start, end, ok := patch.Section(dependenciesTable)(out)
	if !ok {
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, "["+dependenciesTable+"]")
		start, end = len(out), len(out)
	}

	// Insert before the blank lines that separate the table from the next one.
	insertAt := end
	for insertAt > start && strings.TrimSpace(out[insertAt-1]) == "" {
		insertAt--
	}

	var added []string
	for _, dep := range deps {
		if strings.TrimSpace(dep) == "" {
			continue
		}
		key, keyed := declKey(dep)
		if !keyed {
			if !contains(out[start:insertAt], dep) && !contains(added, dep) {
				added = append(added, dep)
			}
			continue
		}
		if i := findKey(out[start:insertAt], key); i >= 0 {
			out[start+i] = dep
			continue
		}
		if i := findKey(added, key); i >= 0 {
			added[i] = dep
			continue
		}
		added = append(added, dep)
	}

	merged := make([]string, 0, len(out)+len(added))
	merged = append(merged, out[:insertAt]...)
	merged = append(merged, added...)
	merged = append(merged, out[insertAt:]...)
	return merged
}

// MergeFile merges deps into the manifest at path, runs fixups over the
// merged lines in order and checks that the result still parses.
func MergeFile(fsys fs.FS, path string, deps []string, fixups ...func([]string) []string) error {
	return textfile.Rewrite(fsys, path, func(lines []string) ([]string, error) {
		merged := Merge(lines, deps)
		for _, fix := range fixups {
			merged = fix(merged)
		}
		if err := Validate([]byte(textfile.Join(merged))); err != nil {
			return nil, err
		}
		return merged, nil
	})
}

// declKey returns the bare key of a `key = value` line. Comments, headers
// and continuation lines have no key.
func declKey(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, "[") {
		return "", false
	}
	eq := strings.IndexByte(t, '=')
	if eq <= 0 {
		return "", false
	}
	key := strings.TrimSpace(t[:eq])
	key = strings.Trim(key, `"'`)
	if key == "" || strings.ContainsAny(key, " \t{}[],") {
		return "", false
	}
	return key, true
}

func findKey(lines []string, key string) int {
	for i, l := range lines {
		if k, ok := declKey(l); ok && k == key {
			return i
		}
	}
	return -1
}
