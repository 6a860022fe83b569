package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/core"
	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fetch"
	"github.com/mercury-protocol/ceres/internal/render"
	"github.com/mercury-protocol/ceres/internal/scaffold"
)

// InitOpts holds options for the init command.
type InitOpts struct {
	Name string
	Lang string // go, js or py
}

// Init implements `ceres init <name>`.
// Creates <cwd>/<name> with the collector starter files fetched into
// collector/<starter folder> and a verifier skeleton. A failed init removes
// the directory it created.
func Init(ctx context.Context, d Deps, opts InitOpts, stdout io.Writer) (err error) {
	log := d.logger()

	if err := core.ValidateProjectName(opts.Name); err != nil {
		return err
	}
	folder, err := fetch.StarterFolder(opts.Lang)
	if err != nil {
		return err
	}

	root := filepath.Join(d.Cwd, opts.Name)
	if _, statErr := d.FS.Stat(root); statErr == nil {
		return errors.NewWithDetails(errors.EProjectExists, "a file or directory named "+opts.Name+" already exists",
			map[string]string{"path": root})
	} else if !os.IsNotExist(statErr) {
		return errors.WrapWithDetails(errors.EIO, "failed to check project directory", statErr, map[string]string{"path": root})
	}

	if err := d.FS.Mkdir(root, 0755); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to create project directory", err, map[string]string{"path": root})
	}
	defer func() {
		if err != nil {
			if rmErr := d.FS.RemoveAll(root); rmErr != nil {
				log.Warn("failed to remove partial project", zap.String("path", root), zap.Error(rmErr))
			}
		}
	}()
	log.Info("created project folder", zap.String("project", opts.Name), zap.String("path", root))

	collectorDir := filepath.Join(root, "collector", folder)
	if err := d.FS.MkdirAll(collectorDir, 0755); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to create collector directory", err, map[string]string{"path": collectorDir})
	}
	f := &fetch.Fetcher{
		Source: fetch.Source{
			APIBase: d.Cfg.Starter.APIBase,
			Owner:   d.Cfg.Starter.Owner,
			Repo:    d.Cfg.Starter.Repo,
		},
		FS:          d.FS,
		Client:      d.HTTP,
		Concurrency: d.Cfg.Starter.Concurrency,
		Logger:      log,
	}
	starterFiles, err := f.Fetch(ctx, folder, collectorDir)
	if err != nil {
		return err
	}

	verifierDir := filepath.Join(root, d.Cfg.Layout.VerifierDir)
	files := scaffold.VerifierFiles(opts.Name, d.Cfg.Manifest.HostMarker, d.Cfg.Manifest.GuestMarker)
	if _, err := scaffold.WriteFiles(d.FS, verifierDir, files); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to write verifier files", err, map[string]string{"path": verifierDir})
	}
	log.Info("created verifier folder", zap.String("path", verifierDir))

	gitignore, err := scaffold.EnsureGitignore(d.FS, filepath.Join(verifierDir, ".gitignore"),
		scaffold.VerifierIgnores(d.Cfg.Layout.OutDir)...)
	if err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to update .gitignore", err, map[string]string{"path": verifierDir})
	}

	if err := render.WriteKV(stdout, []render.KV{
		{Key: "project_root", Value: root},
		{Key: "collector_dir", Value: collectorDir},
		{Key: "starter_files", Value: strconv.Itoa(len(starterFiles))},
		{Key: "verifier_dir", Value: verifierDir},
		{Key: "verifier_files", Value: strconv.Itoa(len(files))},
		{Key: "gitignore", Value: string(gitignore)},
	}); err != nil {
		return errors.Wrap(errors.EIO, "failed to write output", err)
	}
	return nil
}
