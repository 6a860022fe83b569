package scaffold

import (
	"os"
	"strings"

	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/lock"
)

// VerifierIgnores lists the entries that keep generated output and the
// run lock out of git.
func VerifierIgnores(outDir string) []string {
	return []string{strings.TrimSuffix(outDir, "/") + "/", lock.FileName}
}

// GitignoreResult indicates what happened to .gitignore.
type GitignoreResult string

const (
	GitignoreUpdated   GitignoreResult = "updated"
	GitignoreUnchanged GitignoreResult = "unchanged"
)

// EnsureGitignore makes sure every entry is listed in the .gitignore at
// path, creating the file if missing. "out" and "out/" count as the same
// entry. The file always ends with a newline.
func EnsureGitignore(fsys fs.FS, path string, entries ...string) (GitignoreResult, error) {
	content, err := fsys.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	text := string(content)
	var missing []string
	for _, e := range entries {
		if !hasEntry(text, e) {
			missing = append(missing, e)
		}
	}

	needsNewline := len(text) > 0 && !strings.HasSuffix(text, "\n")
	if len(missing) == 0 && !needsNewline && err == nil {
		return GitignoreUnchanged, nil
	}

	if needsNewline {
		text += "\n"
	}
	for _, e := range missing {
		text += e + "\n"
	}
	if err := fs.WriteFileAtomic(fsys, path, []byte(text), 0644); err != nil {
		return "", err
	}
	return GitignoreUpdated, nil
}

func hasEntry(content, entry string) bool {
	want := strings.TrimSuffix(entry, "/")
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSuffix(strings.TrimSpace(line), "/") == want {
			return true
		}
	}
	return false
}
