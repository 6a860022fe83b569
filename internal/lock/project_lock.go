// Package lock serializes mutating ceres commands on one project with an
// exclusive lock file.
package lock

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/mercury-protocol/ceres/internal/errors"
)

// FileName is the lock file created inside the verifier directory.
const FileName = ".ceres.lock"

// Info is the metadata stored in a lock file.
type Info struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
	Cmd       string    `json:"cmd,omitempty"`
}

// ErrLocked indicates a live lock is held by another process.
type ErrLocked struct {
	Info *Info // nil if the lock file is unreadable
	Path string
}

func (e *ErrLocked) Error() string {
	if e.Info != nil {
		return fmt.Sprintf("project is locked by pid %d (%s) since %s (lock file: %s)",
			e.Info.PID, e.Info.Cmd, e.Info.CreatedAt.Format(time.RFC3339), e.Path)
	}
	return fmt.Sprintf("project is locked (lock file: %s)", e.Path)
}

// ProjectLock guards a single lock file path.
type ProjectLock struct {
	Path       string
	StaleAfter time.Duration
	Now        func() time.Time
	IsPIDAlive func(pid int) bool
}

// New returns a ProjectLock for <dir>/.ceres.lock with defaults:
// - StaleAfter: 1h
// - Now: time.Now
// - IsPIDAlive: signal 0 probe
func New(dir string) ProjectLock {
	return ProjectLock{
		Path:       filepath.Join(dir, FileName),
		StaleAfter: time.Hour,
		Now:        time.Now,
		IsPIDAlive: isPIDAlive,
	}
}

const maxAttempts = 3

// Lock acquires the lock and returns an idempotent unlock function. A live
// holder yields E_LOCKED wrapping *ErrLocked; a stale lock (dead pid, too
// old, or unreadable and old by mtime) is removed and acquisition retried.
func (l ProjectLock) Lock(cmd string) (unlock func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0755); err != nil {
		return nil, errors.WrapWithDetails(errors.EIO, "failed to create lock directory", err,
			map[string]string{"path": l.Path})
	}

	var held *ErrLocked
	for attempt := 0; attempt < maxAttempts; attempt++ {
		acquired, err := l.tryCreate(cmd)
		if err != nil {
			return nil, err
		}
		if acquired {
			return l.unlockFunc(), nil
		}

		held = &ErrLocked{Path: l.Path}
		info, readErr := readInfo(l.Path)
		if readErr == nil {
			held.Info = info
		}
		if !l.stale(info, readErr) {
			break
		}
		if rmErr := os.Remove(l.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			break
		}
	}

	details := map[string]string{"path": l.Path}
	if held.Info != nil {
		details["pid"] = strconv.Itoa(held.Info.PID)
	}
	return nil, errors.WrapWithDetails(errors.ELocked, "another ceres command is running on this project", held, details)
}

// tryCreate creates the lock file exclusively. It reports false when the
// file already exists.
func (l ProjectLock) tryCreate(cmd string) (bool, error) {
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, errors.WrapWithDetails(errors.EIO, "failed to create lock file", err, map[string]string{"path": l.Path})
	}

	data, _ := json.Marshal(Info{PID: os.Getpid(), CreatedAt: l.Now(), Cmd: cmd})
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(l.Path)
		return false, errors.WrapWithDetails(errors.EIO, "failed to write lock file", err, map[string]string{"path": l.Path})
	}
	if err := f.Close(); err != nil {
		os.Remove(l.Path)
		return false, errors.WrapWithDetails(errors.EIO, "failed to close lock file", err, map[string]string{"path": l.Path})
	}
	return true, nil
}

func (l ProjectLock) unlockFunc() func() error {
	return func() error {
		if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
}

// stale decides whether an existing lock may be stolen. Unreadable lock
// files fall back to their mtime.
func (l ProjectLock) stale(info *Info, readErr error) bool {
	if readErr != nil {
		st, err := os.Stat(l.Path)
		if err != nil {
			return os.IsNotExist(err)
		}
		return l.Now().Sub(st.ModTime()) > l.StaleAfter
	}
	if !l.IsPIDAlive(info.PID) {
		return true
	}
	return l.Now().Sub(info.CreatedAt) > l.StaleAfter
}

func readInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// isPIDAlive sends signal 0; EPERM still means the process exists.
func isPIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || stderrors.Is(err, syscall.EPERM)
}
