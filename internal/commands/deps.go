// Package commands implements ceres CLI commands.
package commands

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mercury-protocol/ceres/internal/config"
	"github.com/mercury-protocol/ceres/internal/exec"
	"github.com/mercury-protocol/ceres/internal/fs"
)

// Deps are the collaborators every command receives. Cwd is never changed;
// commands pass explicit paths and working directories instead.
type Deps struct {
	CR     exec.CommandRunner
	FS     fs.FS
	Cfg    config.Config
	Cwd    string
	Logger *zap.Logger
	HTTP   *http.Client     // nil means the fetcher default
	Now    func() time.Time // nil means time.Now
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
