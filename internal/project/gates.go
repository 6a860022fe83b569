// Package project resolves a ceres project from the working directory and
// checks that it is ready for generation.
package project

import (
	"path/filepath"

	"github.com/mercury-protocol/ceres/internal/config"
	"github.com/mercury-protocol/ceres/internal/core"
	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/manifest"
)

// User-authored files inside the verifier directory.
const (
	ManifestFile = "Cargo.toml"
	HostLibFile  = "src/hostlib.rs"
	GuestLibFile = "src/guestlib.rs"
)

// Context holds the resolved project paths. All paths are absolute when the
// cwd passed to Resolve is.
type Context struct {
	Root  string
	Names core.Names

	VerifierDir string
	Manifest    string
	HostLib     string
	GuestLib    string

	// OutDir is the parent of GenDir; GenDir is the generated tree,
	// <OutDir>/<project>.
	OutDir string
	GenDir string
}

// Generated tree locations, relative to GenDir.
func (c *Context) MethodsManifest() string { return filepath.Join(c.GenDir, "methods", "Cargo.toml") }
func (c *Context) GuestManifest() string {
	return filepath.Join(c.GenDir, "methods", "guest", "Cargo.toml")
}
func (c *Context) GuestMain() string {
	return filepath.Join(c.GenDir, "methods", "guest", "src", "main.rs")
}
func (c *Context) GuestLibDest() string {
	return filepath.Join(c.GenDir, "methods", "guest", "src", "guestlib.rs")
}
func (c *Context) HostManifest() string { return filepath.Join(c.GenDir, "host", "Cargo.toml") }
func (c *Context) HostMain() string     { return filepath.Join(c.GenDir, "host", "src", "main.rs") }
func (c *Context) HostLibDest() string  { return filepath.Join(c.GenDir, "host", "src", "hostlib.rs") }

// GeneratedFiles lists the files the external generator must produce.
func (c *Context) GeneratedFiles() []string {
	return []string{
		filepath.Join(c.GenDir, "Cargo.toml"),
		c.MethodsManifest(),
		c.GuestManifest(),
		c.HostManifest(),
		c.HostMain(),
		c.GuestMain(),
	}
}

// Resolve derives the project context from cwd without touching the
// filesystem beyond name validation.
func Resolve(cwd string, layout config.LayoutConfig) (*Context, error) {
	name, err := core.ProjectNameFromDir(cwd)
	if err != nil {
		return nil, err
	}
	verifier := filepath.Join(cwd, layout.VerifierDir)
	out := filepath.Join(verifier, layout.OutDir)
	return &Context{
		Root:        cwd,
		Names:       core.NamesFor(name),
		VerifierDir: verifier,
		Manifest:    filepath.Join(verifier, ManifestFile),
		HostLib:     filepath.Join(verifier, filepath.FromSlash(HostLibFile)),
		GuestLib:    filepath.Join(verifier, filepath.FromSlash(GuestLibFile)),
		OutDir:      out,
		GenDir:      filepath.Join(out, name),
	}, nil
}

// Check resolves the project at cwd and applies the generation gates.
//
// Order of checks (deterministic):
//  1. Project name from the final path segment of cwd
//  2. Verifier directory exists
//  3. Verifier manifest exists and parses as TOML
//  4. hostlib and guestlib exist
//
// Error codes:
//   - E_NOT_PROJECT: no verifier directory or manifest
//   - E_MANIFEST_INVALID: the verifier manifest is not valid TOML
//   - E_USER_CODE_MISSING: hostlib or guestlib is missing
func Check(fsys fs.FS, cwd string, layout config.LayoutConfig) (*Context, error) {
	pc, err := Resolve(cwd, layout)
	if err != nil {
		return nil, err
	}

	if !fs.IsDir(fsys, pc.VerifierDir) {
		return nil, errors.NewWithDetails(errors.ENotProject,
			"not a ceres project: no "+layout.VerifierDir+" directory; run ceres from the project root",
			map[string]string{"dir": pc.VerifierDir})
	}

	ok, err := fs.Exists(fsys, pc.Manifest)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EIO, "failed to stat verifier manifest", err,
			map[string]string{"path": pc.Manifest})
	}
	if !ok {
		return nil, errors.NewWithDetails(errors.ENotProject, "verifier manifest not found",
			map[string]string{"path": pc.Manifest})
	}
	if err := manifest.ValidateFile(fsys, pc.Manifest); err != nil {
		return nil, err
	}

	for _, p := range []string{pc.HostLib, pc.GuestLib} {
		ok, err := fs.Exists(fsys, p)
		if err != nil {
			return nil, errors.WrapWithDetails(errors.EIO, "failed to stat user code", err,
				map[string]string{"path": p})
		}
		if !ok {
			return nil, errors.NewWithDetails(errors.EUserCodeMissing,
				"user code missing: write "+filepath.Base(p)+" before running gen",
				map[string]string{"path": p})
		}
	}

	return pc, nil
}
