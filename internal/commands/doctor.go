package commands

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/exec"
	"github.com/mercury-protocol/ceres/internal/genservice"
	"github.com/mercury-protocol/ceres/internal/manifest"
	"github.com/mercury-protocol/ceres/internal/project"
	"github.com/mercury-protocol/ceres/internal/render"
	"github.com/mercury-protocol/ceres/internal/store"
)

// DoctorOpts holds options for the doctor command.
type DoctorOpts struct {
	JSON bool
}

// DoctorReport holds all the data for doctor output.
type DoctorReport struct {
	// Tooling
	CargoVersion    string `json:"cargo_version"`
	GeneratorPlugin string `json:"generator_plugin"`

	// Project
	Project     string `json:"project"`
	VerifierDir string `json:"verifier_dir"`
	HostDeps    int    `json:"host_deps"`
	GuestDeps   int    `json:"guest_deps"`

	// Last gen run (empty if none)
	LastGenReached string `json:"last_gen_reached,omitempty"`
	LastGenFailed  bool   `json:"last_gen_failed,omitempty"`
	LastGenAt      string `json:"last_gen_at,omitempty"`

	// Config resolution
	ConfigSources []string `json:"config_sources"`
}

// Doctor implements `ceres doctor`.
// Checks the toolchain, the project layout and the verifier manifest, in
// that order, and stops at the first failure.
func Doctor(ctx context.Context, d Deps, opts DoctorOpts, stdout io.Writer) error {
	// 1. cargo itself
	res, err := exec.RunChecked(ctx, d.CR, errors.EToolchainMissing, d.Cfg.Toolchain.Cargo, []string{"--version"}, exec.RunOpts{Dir: d.Cwd})
	if err != nil {
		return err
	}
	cargoVersion := firstLine(res.Stdout)

	// 2. generator plugin
	res, err = exec.RunChecked(ctx, d.CR, errors.EToolchainMissing, d.Cfg.Toolchain.Cargo, []string{"install", "--list"}, exec.RunOpts{Dir: d.Cwd})
	if err != nil {
		return err
	}
	plugin := d.Cfg.Toolchain.GeneratorPlugin
	if !genservice.HasInstalledCrate(res.Stdout, plugin) {
		return errors.NewWithDetails(errors.EToolchainMissing, plugin+" is not installed",
			map[string]string{"plugin": plugin})
	}

	// 3. project layout and manifest syntax
	pc, err := project.Check(d.FS, d.Cwd, d.Cfg.Layout)
	if err != nil {
		return err
	}

	// 4. markers partition cleanly
	m := d.Cfg.Manifest
	deps, err := manifest.PartitionFile(d.FS, pc.Manifest,
		manifest.Markers{Host: m.HostMarker, Guest: m.GuestMarker, CommentOnly: true}, "")
	if err != nil {
		return err
	}

	report := DoctorReport{
		CargoVersion:    cargoVersion,
		GeneratorPlugin: plugin,
		Project:         pc.Names.Project,
		VerifierDir:     pc.VerifierDir,
		HostDeps:        countDecls(deps.Host),
		GuestDeps:       countDecls(deps.Guest),
		ConfigSources:   d.Cfg.Sources,
	}
	if report.ConfigSources == nil {
		report.ConfigSources = []string{}
	}

	rec, ok, err := store.LoadGenReport(d.FS, pc.OutDir)
	if err != nil {
		return err
	}
	if ok && rec.Report != nil {
		report.LastGenReached = rec.Report.Reached.String()
		report.LastGenFailed = rec.Report.Failed
		report.LastGenAt = rec.FinishedAt
	}

	if opts.JSON {
		err = render.WriteJSON(stdout, report)
	} else {
		err = render.WriteKV(stdout, doctorKV(report))
	}
	if err != nil {
		return errors.Wrap(errors.EIO, "failed to write output", err)
	}
	return nil
}

func doctorKV(r DoctorReport) []render.KV {
	sources := "defaults"
	if len(r.ConfigSources) > 0 {
		sources = strings.Join(r.ConfigSources, ", ")
	}
	pairs := []render.KV{
		{Key: "cargo_version", Value: r.CargoVersion},
		{Key: "generator_plugin", Value: r.GeneratorPlugin + " (installed)"},
		{Key: "project", Value: r.Project},
		{Key: "verifier_dir", Value: r.VerifierDir},
		{Key: "host_deps", Value: strconv.Itoa(r.HostDeps)},
		{Key: "guest_deps", Value: strconv.Itoa(r.GuestDeps)},
		{Key: "config_sources", Value: sources},
	}
	if r.LastGenReached != "" {
		status := "ok"
		if r.LastGenFailed {
			status = "failed"
		}
		pairs = append(pairs, render.KV{Key: "last_gen", Value: r.LastGenReached + " (" + status + ") at " + r.LastGenAt})
	}
	return pairs
}

// countDecls counts declaration lines, skipping comments and blanks.
func countDecls(lines []string) int {
	n := 0
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t != "" && !strings.HasPrefix(t, "#") {
			n++
		}
	}
	return n
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
