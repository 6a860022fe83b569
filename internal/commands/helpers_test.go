package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/config"
	"github.com/mercury-protocol/ceres/internal/exec"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/scaffold"
)

// stubRunner implements exec.CommandRunner for testing. Handlers are keyed
// by the command line "name arg1 arg2"; unknown commands exit 127.
type stubRunner struct {
	handlers map[string]func(opts exec.RunOpts) (exec.CmdResult, error)
	calls    []string
}

func newStubRunner() *stubRunner {
	return &stubRunner{handlers: make(map[string]func(exec.RunOpts) (exec.CmdResult, error))}
}

func cmdline(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

func (s *stubRunner) On(name string, args []string, fn func(opts exec.RunOpts) (exec.CmdResult, error)) {
	s.handlers[cmdline(name, args)] = fn
}

func (s *stubRunner) Reply(name string, args []string, result exec.CmdResult) {
	s.On(name, args, func(exec.RunOpts) (exec.CmdResult, error) { return result, nil })
}

func (s *stubRunner) Run(_ context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	k := cmdline(name, args)
	s.calls = append(s.calls, k)
	if fn, ok := s.handlers[k]; ok {
		return fn(opts)
	}
	return exec.CmdResult{ExitCode: 127, Stderr: name + ": command not found"}, nil
}

var fixedNow = time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC)

func testDeps(cwd string, cr exec.CommandRunner) Deps {
	cfg := config.Default()
	return Deps{
		CR:     cr,
		FS:     fs.NewRealFS(),
		Cfg:    cfg,
		Cwd:    cwd,
		Logger: zap.NewNop(),
		Now:    func() time.Time { return fixedNow },
	}
}

// newProject scaffolds <tmp>/<name> the way `ceres init` does, minus the
// collector starter files.
func newProject(t *testing.T, name string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	_, err := scaffold.WriteFiles(fs.NewRealFS(), filepath.Join(root, "verifier"),
		scaffold.VerifierFiles(name, "Host", "Guest"))
	require.NoError(t, err)
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const installList = "cargo-risczero v0.16.1:\n    cargo-risczero\n    r0vm\n"

// generatorOutput is the smallest tree the gen patches accept.
var generatorOutput = map[string]string{
	"Cargo.toml": "[workspace]\nmembers = [\"host\", \"methods\"]\n",
	"methods/Cargo.toml": "[package]\nname = \"methods\"\nversion = \"0.1.0\"\n\n" +
		"[build-dependencies]\nrisc0-build = \"0.16.1\"\n",
	"methods/guest/Cargo.toml": "[package]\nname = \"method_name\"\nversion = \"0.1.0\"\n\n" +
		"[dependencies]\nrisc0-zkvm = { version = \"0.16.1\", default-features = false }\n",
	"host/Cargo.toml": "[package]\nname = \"host\"\nversion = \"0.1.0\"\n\n" +
		"[dependencies]\nmethods = { path = \"../methods\" }\n",
	"host/src/main.rs": "use methods::{METHOD_NAME_ELF, METHOD_NAME_ID};\n\nfn main() {\n}\n",
	"methods/guest/src/main.rs": "#![no_main]\n#![no_std]\n\nuse risc0_zkvm::guest::env;\n\n" +
		"risc0_zkvm::guest::entry!(main);\n\npub fn main() {\n}\n",
}

// toolchain wires cargo install --list and cargo risczero new into cr.
func toolchain(cr *stubRunner, name string) {
	cr.Reply("cargo", []string{"--version"}, exec.CmdResult{Stdout: "cargo 1.75.0 (1d8b05cdd 2023-11-20)\n"})
	cr.Reply("cargo", []string{"install", "--list"}, exec.CmdResult{Stdout: installList})
	cr.On("cargo", []string{"risczero", "new", name}, func(opts exec.RunOpts) (exec.CmdResult, error) {
		for rel, content := range generatorOutput {
			p := filepath.Join(opts.Dir, name, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
				return exec.CmdResult{}, err
			}
			if err := os.WriteFile(p, []byte(content), 0644); err != nil {
				return exec.CmdResult{}, err
			}
		}
		return exec.CmdResult{}, nil
	})
}
