// Package git locates the repository add-pr writes into.
package git

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/exec"
)

// GetRepoRoot returns the absolute top-level directory of the git repository
// containing cwd, using `git rev-parse --show-toplevel`.
//
// Returns E_NO_REPO when cwd is empty, git cannot run, cwd is outside a
// repository, or git prints something other than one path.
func GetRepoRoot(ctx context.Context, cr exec.CommandRunner, cwd string) (string, error) {
	if cwd == "" {
		return "", errors.New(errors.ENoRepo, "working directory is empty")
	}

	result, err := cr.Run(ctx, "git", []string{"rev-parse", "--show-toplevel"}, exec.RunOpts{Dir: cwd})
	if err != nil {
		return "", errors.Wrap(errors.ENoRepo, "failed to run git rev-parse", err)
	}
	if result.ExitCode != 0 {
		return "", errors.NewWithDetails(errors.ENoRepo, "not inside a git repository",
			map[string]string{"dir": cwd, "stderr": exec.Tail(result.Stderr, 5)})
	}

	out := strings.TrimSpace(result.Stdout)
	if out == "" || strings.Contains(out, "\n") {
		return "", errors.New(errors.ENoRepo, "unexpected git rev-parse output")
	}

	if !filepath.IsAbs(out) {
		out = filepath.Join(cwd, out)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", errors.Wrap(errors.ENoRepo, "failed to resolve absolute path", err)
	}
	return abs, nil
}

// Origin describes the origin remote of a repository.
type Origin struct {
	URL  string // empty if no origin is configured
	Host string // e.g. github.com
	Path string // e.g. mercury-protocol/mcy-data-collectors, without .git
}

// GetOrigin reads remote.origin.url. It never fails: a missing or
// unreadable origin yields the zero Origin.
func GetOrigin(ctx context.Context, cr exec.CommandRunner, repoRoot string) Origin {
	result, err := cr.Run(ctx, "git", []string{"config", "--get", "remote.origin.url"}, exec.RunOpts{Dir: repoRoot})
	if err != nil || result.ExitCode != 0 {
		return Origin{}
	}
	raw := strings.TrimSpace(result.Stdout)
	if raw == "" {
		return Origin{}
	}
	host, path := ParseOrigin(raw)
	return Origin{URL: raw, Host: host, Path: path}
}

// ParseOrigin splits a remote URL into host and repository path.
// Supported forms:
//   - scp-like: git@github.com:owner/repo.git
//   - https://github.com/owner/repo.git (port dropped)
//   - ssh://git@github.com/owner/repo.git
//
// Anything else yields two empty strings.
func ParseOrigin(raw string) (host, path string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}

	if !strings.Contains(raw, "://") {
		at := strings.Index(raw, "@")
		colon := strings.Index(raw, ":")
		if at < 0 || colon < at {
			return "", ""
		}
		host = raw[at+1 : colon]
		path = raw[colon+1:]
	} else {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "https" && u.Scheme != "ssh") {
			return "", ""
		}
		host = u.Hostname()
		path = u.Path
	}

	if !isValidHost(host) {
		return "", ""
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	return host, path
}

func isValidHost(host string) bool {
	return host != "" && strings.Contains(host, ".") &&
		!strings.HasPrefix(host, ".") && !strings.HasSuffix(host, ".")
}
