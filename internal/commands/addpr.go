package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/core"
	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/git"
	"github.com/mercury-protocol/ceres/internal/render"
	"github.com/mercury-protocol/ceres/internal/store"
)

// CollectorsFile is the registry list add-pr appends to.
const CollectorsFile = "data-collectors.md"

const collectorsRepoName = "mcy-data-collectors"

const maxIDLen = 64

// AddPROpts holds options for the add-pr command.
type AddPROpts struct {
	ProjectDir string
}

// AddPR implements `ceres add-pr <project-dir>`: it reads the project's
// .prinfo and appends its entry to data-collectors.md at the root of the
// git repository containing the working directory.
//
// Error codes:
//   - E_NO_REPO: not in a git repository, or no data-collectors.md at its root
//   - E_PR_INVALID: missing or invalid .prinfo, or the collector is already listed
func AddPR(ctx context.Context, d Deps, opts AddPROpts, stdout io.Writer) error {
	log := d.logger()

	if opts.ProjectDir == "" {
		return errors.New(errors.EUsage, "project directory is required")
	}
	projectDir := opts.ProjectDir
	if !filepath.IsAbs(projectDir) {
		projectDir = filepath.Join(d.Cwd, projectDir)
	}

	info, err := store.LoadPRInfo(d.FS, projectDir)
	if err != nil {
		return err
	}

	root, err := git.GetRepoRoot(ctx, d.CR, d.Cwd)
	if err != nil {
		return err
	}
	if origin := git.GetOrigin(ctx, d.CR, root); origin.Path != "" && filepath.Base(origin.Path) != collectorsRepoName {
		log.Warn("origin does not look like the collectors registry", zap.String("origin", origin.URL))
	}

	path := filepath.Join(root, CollectorsFile)
	content, err := d.FS.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewWithDetails(errors.ENoRepo,
				CollectorsFile+" not found; run add-pr inside a clone of "+render.CollectorsRepoURL,
				map[string]string{"repo_root": root})
		}
		return errors.WrapWithDetails(errors.EIO, "failed to read "+CollectorsFile, err, map[string]string{"path": path})
	}

	id := core.Slugify(info.Name, maxIDLen)
	if strings.Contains(string(content), "**ID**: "+id+"\n") {
		return errors.NewWithDetails(errors.EPRInvalid, "collector is already listed",
			map[string]string{"id": id, "path": path})
	}

	text := string(content)
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += render.CollectorEntry(info, id)

	perm := os.FileMode(0644)
	if fi, err := d.FS.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	if err := fs.WriteFileAtomic(d.FS, path, []byte(text), perm); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to update "+CollectorsFile, err, map[string]string{"path": path})
	}
	log.Info("data collector list updated", zap.String("id", id))

	if err := render.WriteKV(stdout, []render.KV{
		{Key: "collectors_file", Value: path},
		{Key: "id", Value: id},
	}); err != nil {
		return errors.Wrap(errors.EIO, "failed to write output", err)
	}
	return nil
}
