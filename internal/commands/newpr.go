package commands

import (
	"bytes"
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/render"
	"github.com/mercury-protocol/ceres/internal/store"
)

// NewPROpts holds options for the new-pr command.
type NewPROpts struct {
	AnswersPath string
}

// NewPR implements `ceres new-pr --answers <file>`: it writes PR.md and
// .prinfo into the working directory and prints the submission steps.
func NewPR(ctx context.Context, d Deps, opts NewPROpts, stdout io.Writer) error {
	if opts.AnswersPath == "" {
		return errors.New(errors.EUsage, "--answers is required")
	}
	info, err := store.LoadAnswers(d.FS, opts.AnswersPath)
	if err != nil {
		return err
	}

	st := store.NewStore(d.FS, d.Cwd, d.Now)

	var md bytes.Buffer
	if err := render.WritePRMarkdown(&md, info); err != nil {
		return errors.Wrap(errors.EInternal, "failed to render PR.md", err)
	}
	if err := fs.WriteFileAtomic(d.FS, st.PRMarkdownPath(), md.Bytes(), 0644); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to write PR.md", err, map[string]string{"path": st.PRMarkdownPath()})
	}
	if err := st.SavePRInfo(info); err != nil {
		return err
	}
	d.logger().Info("PR description written", zap.String("name", info.Name), zap.String("path", st.PRMarkdownPath()))

	if err := render.WriteKV(stdout, []render.KV{
		{Key: "pr_md", Value: st.PRMarkdownPath()},
		{Key: "prinfo", Value: st.PRInfoPath()},
	}); err != nil {
		return errors.Wrap(errors.EIO, "failed to write output", err)
	}
	return render.WriteNextSteps(stdout, d.Cwd)
}
