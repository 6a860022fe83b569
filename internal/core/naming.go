package core

import (
	"path/filepath"
	"strings"

	"github.com/mercury-protocol/ceres/internal/errors"
)

// Names are the identifiers derived from a project name and used throughout
// the generated tree.
type Names struct {
	Project string // e.g. "my-feed"
	Methods string // methods crate package name: "my-feed-methods"
	Ident   string // Rust identifier form: "my_feed"
	Const   string // constant prefix: "MY_FEED"
}

// NamesFor derives Names from a validated project name.
func NamesFor(project string) Names {
	ident := strings.ReplaceAll(project, "-", "_")
	return Names{
		Project: project,
		Methods: project + "-methods",
		Ident:   ident,
		Const:   strings.ToUpper(ident),
	}
}

// MethodsIdent is the Rust path of the methods crate.
func (n Names) MethodsIdent() string { return n.Ident + "_methods" }

// ELF is the guest image constant exported by the methods crate.
func (n Names) ELF() string { return n.Const + "_ELF" }

// ID is the guest image ID constant exported by the methods crate.
func (n Names) ID() string { return n.Const + "_ID" }

// ProjectNameFromDir returns the final path segment of dir, validated as a
// project name.
func ProjectNameFromDir(dir string) (string, error) {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", errors.NewWithDetails(errors.ENotProject, "cannot derive a project name from the working directory",
			map[string]string{"dir": dir})
	}
	if err := ValidateProjectName(name); err != nil {
		return "", errors.WithDetail(err, "dir", dir)
	}
	return name, nil
}

// ValidateProjectName checks that name can serve as a cargo package name and,
// after '-' is mapped to '_', as a Rust identifier:
// - allowed: [A-Za-z0-9_-]
// - must start with a letter
func ValidateProjectName(name string) error {
	if name == "" {
		return errors.New(errors.EUsage, "project name must not be empty")
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '_'):
		default:
			return errors.NewWithDetails(errors.EUsage, "invalid project name: use letters, digits, '-' or '_', starting with a letter",
				map[string]string{"name": name})
		}
	}
	return nil
}

// Slugify converts a title into a lowercase hyphen slug.
// - allowed: [a-z0-9-]
// - whitespace/underscore => hyphen
// - drop all other chars
// - collapse multiple hyphens
// - trim leading/trailing hyphens
// - maxLen enforced (truncate after cleanup)
// if result empty or maxLen <= 0 => "untitled"
func Slugify(title string, maxLen int) string {
	if maxLen <= 0 {
		return "untitled"
	}

	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '\t' || r == '\n' || r == '_' || r == '-':
			if !prevHyphen {
				b.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	result := strings.Trim(b.String(), "-")
	if len(result) > maxLen {
		result = strings.TrimRight(result[:maxLen], "-")
	}
	if result == "" {
		return "untitled"
	}
	return result
}
