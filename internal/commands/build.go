package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/exec"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/lock"
	"github.com/mercury-protocol/ceres/internal/project"
	"github.com/mercury-protocol/ceres/internal/render"
)

// ImageIDCommand is the host subcommand that prints the guest image ID.
const ImageIDCommand = "get-img-id"

// Build implements `ceres build`: it compiles the generated project in
// release mode, prints the guest image ID and renames the host binary after
// the project.
func Build(ctx context.Context, d Deps, stdout, stderr io.Writer) error {
	log := d.logger()

	pc, err := project.Resolve(d.Cwd, d.Cfg.Layout)
	if err != nil {
		return err
	}
	if !fs.IsDir(d.FS, pc.GenDir) {
		return errors.NewWithDetails(errors.ENotProject, "no generated project; run `ceres gen` first",
			map[string]string{"path": pc.GenDir})
	}

	unlock, err := lock.New(pc.VerifierDir).Lock("build")
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn("failed to release lock", zap.Error(err))
		}
	}()

	log.Info("building", zap.String("project", pc.Names.Project), zap.String("path", pc.GenDir))
	res, err := exec.RunChecked(ctx, d.CR, errors.EBuildFailed, d.Cfg.Toolchain.Cargo,
		[]string{"run", "--release", ImageIDCommand}, exec.RunOpts{Dir: pc.GenDir})
	if err != nil {
		return err
	}
	imageID := strings.TrimSpace(res.Stdout)

	release := filepath.Join(pc.GenDir, "target", "release")
	from := filepath.Join(release, "host")
	to := filepath.Join(release, pc.Names.Project)
	if err := d.FS.Rename(from, to); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to rename host executable", err,
			map[string]string{"from": from, "to": to})
	}

	if err := render.WriteKV(stdout, []render.KV{
		{Key: "project", Value: pc.Names.Project},
		{Key: "image_id", Value: imageID},
		{Key: "executable", Value: to},
	}); err != nil {
		return errors.Wrap(errors.EIO, "failed to write output", err)
	}
	fmt.Fprintln(stderr, "note: save the image_id; it is required when submitting the collector-verifier")
	return nil
}
