package lock

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercury-protocol/ceres/internal/errors"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testLock(dir string, alive bool) ProjectLock {
	return ProjectLock{
		Path:       filepath.Join(dir, FileName),
		StaleAfter: time.Hour,
		Now:        func() time.Time { return testNow },
		IsPIDAlive: func(int) bool { return alive },
	}
}

func writeInfo(t *testing.T, path string, info Info) {
	t.Helper()
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func TestLock_WritesLockFile(t *testing.T) {
	dir := t.TempDir()
	l := testLock(dir, true)

	unlock, err := l.Lock("gen")
	require.NoError(t, err)
	defer unlock()

	data, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	var info Info
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, os.Getpid(), info.PID)
	assert.True(t, info.CreatedAt.Equal(testNow))
	assert.Equal(t, "gen", info.Cmd)

	st, err := os.Stat(l.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())
}

func TestLock_Contention(t *testing.T) {
	dir := t.TempDir()
	l := testLock(dir, true)

	unlock, err := l.Lock("gen")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock("build")
	require.Error(t, err)
	assert.Equal(t, errors.ELocked, errors.GetCode(err))

	var held *ErrLocked
	require.True(t, stderrors.As(err, &held))
	require.NotNil(t, held.Info)
	assert.Equal(t, "gen", held.Info.Cmd)
	assert.Equal(t, l.Path, held.Path)
}

func TestLock_StealsStaleLocks(t *testing.T) {
	tests := []struct {
		name  string
		info  Info
		alive bool
	}{
		{"dead pid", Info{PID: 99999, CreatedAt: testNow.Add(-time.Minute), Cmd: "gen"}, false},
		{"too old", Info{PID: 1, CreatedAt: testNow.Add(-2 * time.Hour), Cmd: "gen"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			l := testLock(dir, tt.alive)
			writeInfo(t, l.Path, tt.info)

			unlock, err := l.Lock("gen")
			require.NoError(t, err)
			defer unlock()
		})
	}
}

func TestLock_UnreadableLockFileUsesMtime(t *testing.T) {
	dir := t.TempDir()
	l := testLock(dir, true)

	require.NoError(t, os.WriteFile(l.Path, []byte("garbage"), 0600))
	recent := testNow.Add(-time.Minute)
	require.NoError(t, os.Chtimes(l.Path, recent, recent))

	_, err := l.Lock("gen")
	assert.Equal(t, errors.ELocked, errors.GetCode(err))

	old := testNow.Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(l.Path, old, old))

	unlock, err := l.Lock("gen")
	require.NoError(t, err)
	defer unlock()
}

func TestLock_UnlockIdempotent(t *testing.T) {
	dir := t.TempDir()
	l := testLock(dir, true)

	unlock, err := l.Lock("gen")
	require.NoError(t, err)
	require.NoError(t, unlock())
	require.NoError(t, unlock())

	_, err = os.Stat(l.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestLock_CreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "verifier")
	l := testLock(dir, true)

	unlock, err := l.Lock("gen")
	require.NoError(t, err)
	defer unlock()
	assert.DirExists(t, dir)
}

func TestNew_Defaults(t *testing.T) {
	l := New("/p/verifier")
	assert.Equal(t, filepath.Join("/p/verifier", FileName), l.Path)
	assert.Equal(t, time.Hour, l.StaleAfter)
	assert.NotNil(t, l.Now)
	assert.NotNil(t, l.IsPIDAlive)
}

func TestErrLocked_Error(t *testing.T) {
	withInfo := &ErrLocked{
		Info: &Info{PID: 12345, CreatedAt: testNow, Cmd: "gen"},
		Path: "/p/verifier/.ceres.lock",
	}
	assert.Contains(t, withInfo.Error(), "12345")
	assert.Contains(t, withInfo.Error(), "/p/verifier/.ceres.lock")

	bare := &ErrLocked{Path: "/p/verifier/.ceres.lock"}
	assert.Contains(t, bare.Error(), "/p/verifier/.ceres.lock")
}

func TestIsPIDAlive(t *testing.T) {
	assert.True(t, isPIDAlive(os.Getpid()))
	assert.False(t, isPIDAlive(0))
	assert.False(t, isPIDAlive(-1))
}
