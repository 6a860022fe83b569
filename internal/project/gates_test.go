package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercury-protocol/ceres/internal/config"
	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/scaffold"
)

// setupProject creates <tmp>/<name>/verifier with the scaffolded files.
func setupProject(t *testing.T, name string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	_, err := scaffold.WriteFiles(fs.NewRealFS(), filepath.Join(root, "verifier"),
		scaffold.VerifierFiles(name, "Host", "Guest"))
	require.NoError(t, err)
	return root
}

func TestCheck_OK(t *testing.T) {
	root := setupProject(t, "weather-feed")

	pc, err := Check(fs.NewRealFS(), root, config.Default().Layout)
	require.NoError(t, err)

	assert.Equal(t, "weather-feed", pc.Names.Project)
	assert.Equal(t, filepath.Join(root, "verifier"), pc.VerifierDir)
	assert.Equal(t, filepath.Join(root, "verifier", "out", "weather-feed"), pc.GenDir)
	assert.Equal(t, filepath.Join(pc.GenDir, "methods", "guest", "src", "guestlib.rs"), pc.GuestLibDest())
	assert.Equal(t, filepath.Join(pc.GenDir, "host", "src", "hostlib.rs"), pc.HostLibDest())
	assert.Len(t, pc.GeneratedFiles(), 6)
}

func TestCheck_Gates(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
		code  errors.Code
	}{
		{
			name:  "no verifier dir",
			setup: func(t *testing.T, root string) { require.NoError(t, os.RemoveAll(filepath.Join(root, "verifier"))) },
			code:  errors.ENotProject,
		},
		{
			name:  "no manifest",
			setup: func(t *testing.T, root string) { require.NoError(t, os.Remove(filepath.Join(root, "verifier", "Cargo.toml"))) },
			code:  errors.ENotProject,
		},
		{
			name: "manifest not toml",
			setup: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "verifier", "Cargo.toml"), []byte("[package\n"), 0644))
			},
			code: errors.EManifestInvalid,
		},
		{
			name:  "hostlib missing",
			setup: func(t *testing.T, root string) { require.NoError(t, os.Remove(filepath.Join(root, "verifier", "src", "hostlib.rs"))) },
			code:  errors.EUserCodeMissing,
		},
		{
			name:  "guestlib missing",
			setup: func(t *testing.T, root string) { require.NoError(t, os.Remove(filepath.Join(root, "verifier", "src", "guestlib.rs"))) },
			code:  errors.EUserCodeMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupProject(t, "widget")
			tt.setup(t, root)

			_, err := Check(fs.NewRealFS(), root, config.Default().Layout)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), "error: %v", err)
		})
	}
}

func TestResolve_InvalidName(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "9lives"), config.Default().Layout)
	assert.Equal(t, errors.EUsage, errors.GetCode(err))

	_, err = Resolve("/", config.Default().Layout)
	assert.Equal(t, errors.ENotProject, errors.GetCode(err))
}
