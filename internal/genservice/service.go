// Package genservice implements the stages of the generate pipeline against
// the real toolchain and filesystem.
package genservice

import (
	"bufio"
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/config"
	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/exec"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/manifest"
	"github.com/mercury-protocol/ceres/internal/patch"
	"github.com/mercury-protocol/ceres/internal/pipeline"
	"github.com/mercury-protocol/ceres/internal/project"
	"github.com/mercury-protocol/ceres/internal/textfile"
)

// Service is the production implementation of pipeline.Service.
type Service struct {
	cr     exec.CommandRunner
	fsys   fs.FS
	cfg    config.Config
	cwd    string
	logger *zap.Logger
}

var _ pipeline.Service = (*Service)(nil)

// New creates a Service for the project rooted at cwd.
func New(cr exec.CommandRunner, fsys fs.FS, cfg config.Config, cwd string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cr: cr, fsys: fsys, cfg: cfg, cwd: cwd, logger: logger}
}

// CheckToolchain requires `cargo install --list` to list the generator plugin.
func (s *Service) CheckToolchain(ctx context.Context, st *pipeline.State) error {
	cargo := s.cfg.Toolchain.Cargo
	res, err := exec.RunChecked(ctx, s.cr, errors.EToolchainMissing, cargo, []string{"install", "--list"}, exec.RunOpts{Dir: s.cwd})
	if err != nil {
		return err
	}
	plugin := s.cfg.Toolchain.GeneratorPlugin
	if !HasInstalledCrate(res.Stdout, plugin) {
		return errors.NewWithDetails(errors.EToolchainMissing,
			plugin+" is not installed; install it with `"+cargo+" install "+plugin+"`",
			map[string]string{"plugin": plugin})
	}
	s.logger.Debug("generator plugin found", zap.String("plugin", plugin))
	return nil
}

// HasInstalledCrate reports whether the output of `cargo install --list`
// names crate. Crates appear unindented as "<name> v<version>:", their
// binaries indented below them.
func HasInstalledCrate(list, crate string) bool {
	sc := bufio.NewScanner(strings.NewReader(list))
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		name, _, _ := strings.Cut(line, " ")
		if strings.TrimSuffix(name, ":") == crate {
			return true
		}
	}
	return false
}

// ValidateProject checks the project gates and prepares the output directory.
// An existing generated tree fails with E_OUTPUT_EXISTS unless Force is set,
// in which case it is removed.
func (s *Service) ValidateProject(ctx context.Context, st *pipeline.State) error {
	pc, err := project.Check(s.fsys, s.cwd, s.cfg.Layout)
	if err != nil {
		return err
	}
	st.Project = pc
	s.logger.Info("project validated", zap.String("project", pc.Names.Project))

	exists, err := fs.Exists(s.fsys, pc.GenDir)
	if err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to stat output directory", err, map[string]string{"path": pc.GenDir})
	}
	if exists {
		if !st.Force {
			return errors.NewWithDetails(errors.EOutputExists,
				"generated project already exists; rerun with --force to replace it",
				map[string]string{"path": pc.GenDir})
		}
		if err := s.fsys.RemoveAll(pc.GenDir); err != nil {
			return errors.WrapWithDetails(errors.EIO, "failed to remove existing output", err, map[string]string{"path": pc.GenDir})
		}
		s.logger.Info("removed existing generated project", zap.String("path", pc.GenDir))
	}

	if err := s.fsys.MkdirAll(pc.OutDir, 0755); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to create output directory", err, map[string]string{"path": pc.OutDir})
	}
	s.logger.Info("created out folder", zap.String("path", pc.OutDir))
	return nil
}

// InstantiateTemplate runs `cargo <plugin> new <name>` inside the output
// directory and checks that the expected files were produced.
func (s *Service) InstantiateTemplate(ctx context.Context, st *pipeline.State) error {
	pc := st.Project
	sub := strings.TrimPrefix(s.cfg.Toolchain.GeneratorPlugin, "cargo-")
	args := []string{sub, "new", pc.Names.Project}

	// Anything the generator leaves behind is ours to clean up, even on failure.
	st.Instantiated = true
	if _, err := exec.RunChecked(ctx, s.cr, errors.EGeneratorFailed, s.cfg.Toolchain.Cargo, args, exec.RunOpts{Dir: pc.OutDir}); err != nil {
		return err
	}

	var missing []string
	for _, p := range pc.GeneratedFiles() {
		ok, err := fs.Exists(s.fsys, p)
		if err != nil {
			return errors.WrapWithDetails(errors.EIO, "failed to stat generated file", err, map[string]string{"path": p})
		}
		if !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return errors.NewWithDetails(errors.EGeneratorFailed, "generator output does not have the expected layout",
			map[string]string{"missing": strings.Join(missing, ",")})
	}

	st.Touch(pc.GenDir)
	s.logger.Info("template instantiated", zap.String("path", pc.GenDir))
	return nil
}

// PatchManifests renames the methods and guest crates, points the host at
// the renamed methods crate and enables std on the guest's zkVM dependency.
// Every patched manifest must still parse as TOML.
func (s *Service) PatchManifests(ctx context.Context, st *pipeline.State) error {
	pc := st.Project
	n := pc.Names
	features := patch.StdFeatures(s.cfg.Manifest.ZKVMDependency, s.cfg.Manifest.StdFeatures...)

	edits := []struct {
		path    string
		targets []patch.Target
		extra   func([]string) []string
	}{
		{pc.MethodsManifest(), []patch.Target{PackageName(n.Methods)}, nil},
		{pc.GuestManifest(), []patch.Target{PackageName(n.Project)}, features.Apply},
		{pc.HostManifest(), []patch.Target{MethodsDependency(n)}, nil},
	}

	for _, e := range edits {
		err := textfile.Rewrite(s.fsys, e.path, func(lines []string) ([]string, error) {
			var err error
			for _, t := range e.targets {
				if lines, err = t.Apply(lines); err != nil {
					return nil, err
				}
			}
			if e.extra != nil {
				lines = e.extra(lines)
			}
			return lines, manifest.Validate([]byte(textfile.Join(lines)))
		})
		if err != nil {
			return err
		}
		st.Touch(e.path)
	}
	return nil
}

// PatchEntryPoints points the host import at the renamed methods crate and
// replaces both main bodies.
func (s *Service) PatchEntryPoints(ctx context.Context, st *pipeline.State) error {
	pc := st.Project
	n := pc.Names

	if err := patch.ApplyFile(s.fsys, pc.HostMain(), HostMethodsImport(n), HostEntry(n)); err != nil {
		return err
	}
	st.Touch(pc.HostMain())

	if err := patch.ApplyFile(s.fsys, pc.GuestMain(), GuestEntry()); err != nil {
		return err
	}
	st.Touch(pc.GuestMain())
	return nil
}

// MergeDependencies partitions the user's verifier manifest and merges the
// host and guest lists into the generated manifests.
func (s *Service) MergeDependencies(ctx context.Context, st *pipeline.State) error {
	pc := st.Project
	m := s.cfg.Manifest
	markers := manifest.Markers{Host: m.HostMarker, Guest: m.GuestMarker, CommentOnly: true}

	deps, err := manifest.PartitionFile(s.fsys, pc.Manifest, markers, m.ImplicitGuestDependency)
	if err != nil {
		return err
	}
	s.logger.Debug("dependencies partitioned",
		zap.Strings("host", deps.Host), zap.Strings("guest", deps.Guest))

	if err := manifest.MergeFile(s.fsys, pc.HostManifest(), deps.Host); err != nil {
		return err
	}
	st.Touch(pc.HostManifest())
	// A user redeclaring the zkVM crate replaces the patched line; enable its
	// std features again.
	features := patch.StdFeatures(m.ZKVMDependency, m.StdFeatures...)
	if err := manifest.MergeFile(s.fsys, pc.GuestManifest(), deps.Guest, features.Apply); err != nil {
		return err
	}
	st.Touch(pc.GuestManifest())
	return nil
}

// InjectUserCode copies hostlib and guestlib next to the generated mains.
func (s *Service) InjectUserCode(ctx context.Context, st *pipeline.State) error {
	pc := st.Project
	for _, c := range []struct{ src, dst string }{
		{pc.HostLib, pc.HostLibDest()},
		{pc.GuestLib, pc.GuestLibDest()},
	} {
		if err := fs.CopyFile(s.fsys, c.src, c.dst); err != nil {
			return errors.WrapWithDetails(errors.EIO, "failed to copy user code", err,
				map[string]string{"from": c.src, "to": c.dst})
		}
		st.Touch(c.dst)
	}
	s.logger.Info("user code injected", zap.String("project", pc.Names.Project))
	return nil
}

// Cleanup removes the generated tree.
func (s *Service) Cleanup(ctx context.Context, st *pipeline.State) error {
	if st.Project == nil {
		return nil
	}
	if err := s.fsys.RemoveAll(st.Project.GenDir); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to remove partial output", err,
			map[string]string{"path": st.Project.GenDir})
	}
	s.logger.Info("removed partial generated project", zap.String("path", st.Project.GenDir))
	return nil
}
