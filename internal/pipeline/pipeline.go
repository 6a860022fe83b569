// Package pipeline sequences the generate operation. Stages run in a fixed
// order, the first failure stops the run, and every error leaves with the
// failing stage attached.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/project"
)

// Stage is a state of the generate state machine. A run moves strictly
// forward from Uninitialized to Done.
type Stage int

const (
	Uninitialized Stage = iota
	ToolchainChecked
	ProjectValidated
	TemplateInstantiated
	ManifestsPatched
	EntryPointsPatched
	DependenciesMerged
	UserCodeInjected
	Done
)

var stageNames = [...]string{
	"Uninitialized",
	"ToolchainChecked",
	"ProjectValidated",
	"TemplateInstantiated",
	"ManifestsPatched",
	"EntryPointsPatched",
	"DependenciesMerged",
	"UserCodeInjected",
	"Done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// MarshalText renders the stage by name in reports.
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a stage name.
func (s *Stage) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return errors.Newf(errors.EInternal, "unknown stage %q", string(b))
}

// Options are the caller's switches for one run.
type Options struct {
	// Force removes an existing generated tree instead of refusing.
	Force bool
	// KeepFailed leaves a partial generated tree on disk after a failure.
	KeepFailed bool
}

// State is shared by the stages of one run.
type State struct {
	Options

	// Populated by ValidateProject.
	Project *project.Context

	// Instantiated is set once the generator has created the tree, which
	// makes it eligible for cleanup.
	Instantiated bool

	touched []string
}

// Touch records a file written by the current stage.
func (st *State) Touch(paths ...string) {
	st.touched = append(st.touched, paths...)
}

// Service implements the stages. Implementations are injected so the
// pipeline can be tested without a toolchain or a filesystem.
type Service interface {
	// CheckToolchain verifies cargo and the generator plugin are installed.
	CheckToolchain(ctx context.Context, st *State) error
	// ValidateProject resolves the project and prepares the output directory.
	ValidateProject(ctx context.Context, st *State) error
	// InstantiateTemplate runs the external generator.
	InstantiateTemplate(ctx context.Context, st *State) error
	// PatchManifests renames crates and enables std on the zkVM dependency.
	PatchManifests(ctx context.Context, st *State) error
	// PatchEntryPoints rewrites the host and guest main functions.
	PatchEntryPoints(ctx context.Context, st *State) error
	// MergeDependencies copies the user's host and guest dependencies.
	MergeDependencies(ctx context.Context, st *State) error
	// InjectUserCode copies hostlib and guestlib into the generated tree.
	InjectUserCode(ctx context.Context, st *State) error
	// Cleanup removes the generated tree after a failed run.
	Cleanup(ctx context.Context, st *State) error
}

// StageResult records one completed stage.
type StageResult struct {
	Stage    Stage         `json:"stage"`
	Started  time.Time     `json:"started_at"`
	Duration time.Duration `json:"duration_ns"`
	Files    []string      `json:"files,omitempty"`
}

// Report describes a run, successful or not.
type Report struct {
	Project   string        `json:"project,omitempty"`
	GenDir    string        `json:"gen_dir,omitempty"`
	Reached   Stage         `json:"reached"`
	Failed    bool          `json:"failed"`
	Error     string        `json:"error,omitempty"`
	CleanedUp bool          `json:"cleaned_up,omitempty"`
	Stages    []StageResult `json:"stages"`
}

// step is one Service method and the stage its success reaches.
type step struct {
	name  string
	stage Stage
	run   func(context.Context, *State) error
}

// Pipeline runs the stages of a Service in order.
type Pipeline struct {
	svc     Service
	logger  *zap.Logger
	nowFunc func() time.Time
}

// New creates a pipeline over svc. A nil logger discards output.
func New(svc Service, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{svc: svc, logger: logger, nowFunc: time.Now}
}

// SetNowFunc overrides the time source for testing.
func (p *Pipeline) SetNowFunc(fn func() time.Time) {
	p.nowFunc = fn
}

// Run executes the stages:
//  1. CheckToolchain      -> ToolchainChecked
//  2. ValidateProject     -> ProjectValidated
//  3. InstantiateTemplate -> TemplateInstantiated
//  4. PatchManifests      -> ManifestsPatched
//  5. PatchEntryPoints    -> EntryPointsPatched
//  6. MergeDependencies   -> DependenciesMerged
//  7. InjectUserCode      -> UserCodeInjected, then Done
//
// The first failing stage ends the run. Its error keeps its code and gains a
// "stage" detail naming the step that failed (e.g. CheckToolchain), while
// Report.Reached stays at the last stage completed; errors that are
// not CeresErrors become E_INTERNAL. If the template had been instantiated
// and KeepFailed is off, Cleanup runs before returning; a cleanup failure is
// logged, not returned. The report is returned in every case.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	st := &State{Options: opts}
	rep := &Report{Reached: Uninitialized}

	steps := []step{
		{"CheckToolchain", ToolchainChecked, p.svc.CheckToolchain},
		{"ValidateProject", ProjectValidated, p.svc.ValidateProject},
		{"InstantiateTemplate", TemplateInstantiated, p.svc.InstantiateTemplate},
		{"PatchManifests", ManifestsPatched, p.svc.PatchManifests},
		{"PatchEntryPoints", EntryPointsPatched, p.svc.PatchEntryPoints},
		{"MergeDependencies", DependenciesMerged, p.svc.MergeDependencies},
		{"InjectUserCode", UserCodeInjected, p.svc.InjectUserCode},
	}

	for _, s := range steps {
		st.touched = nil
		started := p.nowFunc()
		p.logger.Debug("stage started", zap.Stringer("stage", s.stage))

		if err := s.run(ctx, st); err != nil {
			err = errors.WithDetail(err, "stage", s.name)
			rep.Failed = true
			rep.Error = err.Error()
			p.fillProject(rep, st)
			p.cleanup(ctx, st, rep)
			return rep, err
		}

		result := StageResult{
			Stage:    s.stage,
			Started:  started,
			Duration: p.nowFunc().Sub(started),
			Files:    st.touched,
		}
		rep.Stages = append(rep.Stages, result)
		rep.Reached = s.stage
		p.fillProject(rep, st)

		p.logger.Info("stage completed",
			zap.Stringer("stage", s.stage),
			zap.Duration("duration", result.Duration),
			zap.Int("files", len(result.Files)))
	}

	rep.Reached = Done
	return rep, nil
}

func (p *Pipeline) fillProject(rep *Report, st *State) {
	if st.Project != nil {
		rep.Project = st.Project.Names.Project
		rep.GenDir = st.Project.GenDir
	}
}

func (p *Pipeline) cleanup(ctx context.Context, st *State, rep *Report) {
	if !st.Instantiated {
		return
	}
	if st.KeepFailed {
		p.logger.Warn("leaving partial generated tree", zap.String("path", rep.GenDir))
		return
	}
	if err := p.svc.Cleanup(ctx, st); err != nil {
		p.logger.Warn("cleanup failed", zap.String("path", rep.GenDir), zap.Error(err))
		return
	}
	rep.CleanedUp = true
}
