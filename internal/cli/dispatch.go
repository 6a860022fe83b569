// Package cli handles command-line parsing and dispatch for ceres.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/commands"
	"github.com/mercury-protocol/ceres/internal/config"
	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/exec"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/logging"
	"github.com/mercury-protocol/ceres/internal/paths"
	"github.com/mercury-protocol/ceres/internal/version"
)

// App holds the process-level collaborators a command line runs against.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	Getwd   func() (string, error)
	HomeDir func() (string, error)
	Env     paths.Env
	CR      exec.CommandRunner
	FS      fs.FS
	HTTP    *http.Client
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	verbose    bool
	logFormat  string
	configPath string
}

// Run parses arguments and dispatches to the appropriate subcommand.
// Returns an error if the command fails; the caller should print the error and exit.
func Run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &App{
		Stdout:  stdout,
		Stderr:  stderr,
		Getwd:   os.Getwd,
		HomeDir: os.UserHomeDir,
		Env:     paths.OSEnv{},
		CR:      exec.NewRealRunner(),
		FS:      fs.NewRealFS(),
	}
	return app.Execute(ctx, args)
}

// Execute runs one command line. Parse failures surface as E_USAGE.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if _, ok := errors.AsCeresError(err); ok {
		return err
	}
	// Anything cobra reports on its own is a parse failure.
	return errors.Wrap(errors.EUsage, err.Error(), err)
}

func (a *App) rootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "ceres",
		Short: "Scaffold, generate and package Mercury collector-verifiers",
		Long: `ceres creates collector-verifier projects, turns the verifier into a
RISC Zero zkVM project, builds it and prepares the registry submission.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.EUsage, "no command specified")
		},
	}
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)
	root.SetVersionTemplate("ceres {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(errors.EUsage, "invalid flags", err)
	})

	pf := root.PersistentFlags()
	pf.BoolVarP(&g.verbose, "verbose", "V", false, "enable debug logging")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: text or json (default from config)")
	pf.StringVar(&g.configPath, "config", "", "config file to use instead of ./ceres.yaml")

	root.AddCommand(
		a.initCmd(g),
		a.genCmd(g),
		a.buildCmd(g),
		a.doctorCmd(g),
		a.newPRCmd(g),
		a.addPRCmd(g),
	)
	return root
}

// deps resolves config and logging for one invocation. The returned
// function flushes the logger.
func (a *App) deps(g *globalFlags) (commands.Deps, func(), error) {
	cwd, err := a.Getwd()
	if err != nil {
		return commands.Deps{}, nil, errors.Wrap(errors.EIO, "failed to get working directory", err)
	}

	opts := config.LoadOptions{ProjectDir: cwd, ExplicitPath: g.configPath, Env: a.Env}
	if opts.ExplicitPath != "" && !filepath.IsAbs(opts.ExplicitPath) {
		opts.ExplicitPath = filepath.Join(cwd, opts.ExplicitPath)
	}
	if home, err := a.HomeDir(); err == nil && home != "" {
		opts.UserConfigDir = paths.ConfigDir(a.Env, home)
	}
	cfg, err := config.Load(a.FS, opts)
	if err != nil {
		return commands.Deps{}, nil, err
	}

	format := cfg.Logging.Format
	if g.logFormat != "" {
		format = g.logFormat
	}
	logger, err := logging.New(a.Stderr, logging.Options{Level: cfg.Logging.Level, Format: format, Verbose: g.verbose})
	if err != nil {
		return commands.Deps{}, nil, err
	}
	logger.Debug("config resolved", zap.Strings("sources", cfg.Sources), zap.String("cwd", cwd))

	d := commands.Deps{
		CR:     a.CR,
		FS:     a.FS,
		Cfg:    cfg,
		Cwd:    cwd,
		Logger: logger,
		HTTP:   a.HTTP,
	}
	return d, func() { _ = logger.Sync() }, nil
}

// withDeps adapts a command body to cobra's RunE.
func (a *App) withDeps(g *globalFlags, fn func(ctx context.Context, d commands.Deps, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, done, err := a.deps(g)
		if err != nil {
			return err
		}
		defer done()
		return fn(cmd.Context(), d, args)
	}
}

// exactArgs is cobra.ExactArgs with an E_USAGE error naming the missing
// argument.
func exactArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == n {
			return nil
		}
		if len(args) < n {
			return errors.Newf(errors.EUsage, "%s requires %s", cmd.CommandPath(), what)
		}
		return errors.Newf(errors.EUsage, "%s: unexpected arguments %q", cmd.CommandPath(), args[n:])
	}
}

func (a *App) initCmd(g *globalFlags) *cobra.Command {
	var goLang, jsLang, pyLang bool
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a collector-verifier project",
		Long: `Create <name>/ with collector starter files for the chosen language and
a verifier skeleton whose Cargo.toml holds the host and guest dependency markers.`,
		Example: "  ceres init weather --go",
		Args:    exactArgs(1, "a project name"),
		RunE: a.withDeps(g, func(ctx context.Context, d commands.Deps, args []string) error {
			lang, err := pickLang(map[string]bool{"go": goLang, "js": jsLang, "py": pyLang})
			if err != nil {
				return err
			}
			return commands.Init(ctx, d, commands.InitOpts{Name: args[0], Lang: lang}, a.Stdout)
		}),
	}
	cmd.Flags().BoolVar(&goLang, "go", false, "Go collector")
	cmd.Flags().BoolVar(&jsLang, "js", false, "JavaScript collector")
	cmd.Flags().BoolVar(&pyLang, "py", false, "Python collector")
	return cmd
}

// pickLang returns the one selected language flag.
func pickLang(selected map[string]bool) (string, error) {
	var lang string
	n := 0
	for _, l := range []string{"go", "js", "py"} {
		if selected[l] {
			lang = l
			n++
		}
	}
	switch n {
	case 0:
		return "", errors.New(errors.EUsage, "choose a collector language with --go, --js or --py")
	case 1:
		return lang, nil
	}
	return "", errors.New(errors.EUsage, "--go, --js and --py are mutually exclusive")
}

func (a *App) genCmd(g *globalFlags) *cobra.Command {
	var opts commands.GenOpts
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the zkVM project from the verifier",
		Long: `Run the generator plugin and patch its output with the verifier's
dependencies and code. Run inside the project directory.`,
		Args: exactArgs(0, "no arguments"),
		RunE: a.withDeps(g, func(ctx context.Context, d commands.Deps, _ []string) error {
			return commands.Gen(ctx, d, opts, a.Stdout)
		}),
	}
	cmd.Flags().BoolVar(&opts.Force, "force", false, "replace an existing generated project")
	cmd.Flags().BoolVar(&opts.KeepFailed, "keep-failed", false, "keep the generated tree when a stage fails")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the stage report as JSON")
	return cmd
}

func (a *App) buildCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the generated project and print its image ID",
		Args:  exactArgs(0, "no arguments"),
		RunE: a.withDeps(g, func(ctx context.Context, d commands.Deps, _ []string) error {
			return commands.Build(ctx, d, a.Stdout, a.Stderr)
		}),
	}
}

func (a *App) doctorCmd(g *globalFlags) *cobra.Command {
	var opts commands.DoctorOpts
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the toolchain and the project layout",
		Args:  exactArgs(0, "no arguments"),
		RunE: a.withDeps(g, func(ctx context.Context, d commands.Deps, _ []string) error {
			return commands.Doctor(ctx, d, opts, a.Stdout)
		}),
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output as JSON")
	return cmd
}

func (a *App) newPRCmd(g *globalFlags) *cobra.Command {
	var opts commands.NewPROpts
	cmd := &cobra.Command{
		Use:   "new-pr",
		Short: "Write PR.md and .prinfo from an answers file",
		Long: `Render the registry pull request description from a YAML answers file
with the keys name, description, data_description, data_source,
data_usefulness, code_explanation, image_id, email and source_code.`,
		Example: "  ceres new-pr --answers answers.yaml",
		Args:    exactArgs(0, "no arguments"),
		RunE: a.withDeps(g, func(ctx context.Context, d commands.Deps, _ []string) error {
			return commands.NewPR(ctx, d, opts, a.Stdout)
		}),
	}
	cmd.Flags().StringVar(&opts.AnswersPath, "answers", "", "YAML answers file (required)")
	return cmd
}

func (a *App) addPRCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add-pr <project-dir>",
		Short: "Append a project to data-collectors.md",
		Long: fmt.Sprintf(`Append the entry for <project-dir> to %s in the registry clone
containing the working directory.`, commands.CollectorsFile),
		Args: exactArgs(1, "a project directory"),
		RunE: a.withDeps(g, func(ctx context.Context, d commands.Deps, args []string) error {
			return commands.AddPR(ctx, d, commands.AddPROpts{ProjectDir: args[0]}, a.Stdout)
		}),
	}
}
