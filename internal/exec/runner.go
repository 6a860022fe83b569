// Package exec runs the external toolchain (cargo and its plugins) behind an
// interface that tests can stub.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	cerrors "github.com/mercury-protocol/ceres/internal/errors"
)

// CmdResult holds the result of a command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunOpts holds optional parameters for command execution.
type RunOpts struct {
	Dir string            // working directory; the process cwd is never changed
	Env map[string]string // extra environment variables (overlay)
}

// CommandRunner is the interface for running external commands.
type CommandRunner interface {
	// Run executes a command to completion and returns the result.
	// A non-zero exit is reported through CmdResult.ExitCode with a nil error.
	// The error is reserved for failures to execute at all (binary not found,
	// ctx canceled, io failure).
	Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error)
}

// RealRunner is the production implementation of CommandRunner using os/exec.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes the command and captures stdout/stderr.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	if len(opts.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	err := cmd.Run()

	result := CmdResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// RunChecked runs the command and converts both execution failures and
// non-zero exits into a CeresError with the given code. The command line,
// working directory, exit code and the tail of stderr are attached as details.
func RunChecked(ctx context.Context, cr CommandRunner, code cerrors.Code, name string, args []string, opts RunOpts) (CmdResult, error) {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))
	details := map[string]string{"command": cmdline}
	if opts.Dir != "" {
		details["dir"] = opts.Dir
	}

	result, err := cr.Run(ctx, name, args, opts)
	if err != nil {
		return result, cerrors.WrapWithDetails(code, "failed to run "+name, err, details)
	}
	if result.ExitCode != 0 {
		details["exit_code"] = strconv.Itoa(result.ExitCode)
		if tail := Tail(result.Stderr, 20); tail != "" {
			details["stderr"] = tail
		}
		return result, cerrors.NewWithDetails(code, cmdline+" exited non-zero", details)
	}
	return result, nil
}

// Tail returns at most the last n non-empty lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
