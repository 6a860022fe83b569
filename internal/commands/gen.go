package commands

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/genservice"
	"github.com/mercury-protocol/ceres/internal/lock"
	"github.com/mercury-protocol/ceres/internal/pipeline"
	"github.com/mercury-protocol/ceres/internal/project"
	"github.com/mercury-protocol/ceres/internal/render"
	"github.com/mercury-protocol/ceres/internal/store"
)

// GenOpts holds options for the gen command.
type GenOpts struct {
	Force      bool
	KeepFailed bool
	JSON       bool
}

// Gen implements `ceres gen`: it runs the generate pipeline for the project
// at the working directory while holding the project lock, then persists and
// prints the stage report. The report is printed on failure too.
func Gen(ctx context.Context, d Deps, opts GenOpts, stdout io.Writer) error {
	log := d.logger()

	pc, err := project.Resolve(d.Cwd, d.Cfg.Layout)
	if err != nil {
		return err
	}

	// Without a verifier dir the pipeline fails with E_NOT_PROJECT; do not
	// create one just to hold the lock.
	if fs.IsDir(d.FS, pc.VerifierDir) {
		unlock, err := lock.New(pc.VerifierDir).Lock("gen")
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(); err != nil {
				log.Warn("failed to release lock", zap.Error(err))
			}
		}()
	}

	svc := genservice.New(d.CR, d.FS, d.Cfg, d.Cwd, log)
	p := pipeline.New(svc, log)
	if d.Now != nil {
		p.SetNowFunc(d.Now)
	}

	rep, runErr := p.Run(ctx, pipeline.Options{Force: opts.Force, KeepFailed: opts.KeepFailed})

	if rep.Reached >= pipeline.ProjectValidated {
		st := store.NewStore(d.FS, pc.Root, d.Now)
		if err := st.SaveGenReport(pc.OutDir, rep); err != nil {
			log.Warn("failed to save gen report", zap.Error(err))
		}
	}

	var outErr error
	if opts.JSON {
		outErr = render.WriteJSON(stdout, rep)
	} else {
		outErr = render.WriteKV(stdout, render.GenReportKV(rep))
	}
	if runErr != nil {
		return runErr
	}
	if outErr != nil {
		return errors.Wrap(errors.EIO, "failed to write output", outErr)
	}

	log.Info("generated project ready", zap.String("project", rep.Project), zap.String("path", rep.GenDir))
	return nil
}
