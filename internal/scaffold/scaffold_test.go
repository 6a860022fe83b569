package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/manifest"
	"github.com/mercury-protocol/ceres/internal/textfile"
)

func TestVerifierManifest_ParsesAndPartitions(t *testing.T) {
	content := VerifierManifest("weather", "Host", "Guest")

	require.NoError(t, manifest.Validate([]byte(content)))
	name, err := manifest.PackageName([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "weather", name)

	deps, err := manifest.Partition(textfile.Split(content), manifest.DefaultMarkers, manifest.DefaultImplicitGuestDependency)
	require.NoError(t, err)
	assert.Equal(t, []string{MarkerComment("Host", "host"), ""}, deps.Host)
	assert.Equal(t, []string{manifest.DefaultImplicitGuestDependency}, deps.Guest)
}

func TestWriteFiles_CreatesAndSkips(t *testing.T) {
	root := t.TempDir()
	fsys := fs.NewRealFS()

	existing := filepath.Join(root, "src", "hostlib.rs")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0755))
	require.NoError(t, os.WriteFile(existing, []byte("// mine\n"), 0644))

	res, err := WriteFiles(fsys, root, VerifierFiles("weather", "Host", "Guest"))
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join("src", "hostlib.rs")}, res.Skipped)
	assert.ElementsMatch(t, []string{
		"Cargo.toml",
		"README.md",
		filepath.Join("src", "guestlib.rs"),
		filepath.Join("src", "main.rs"),
	}, res.Created)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "// mine\n", string(data), "existing file overwritten")

	data, err = os.ReadFile(filepath.Join(root, "src", "main.rs"))
	require.NoError(t, err)
	assert.Equal(t, MainStub, string(data))

	info, err := os.Stat(filepath.Join(root, "README.md"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestEnsureGitignore(t *testing.T) {
	fsys := fs.NewRealFS()

	tests := []struct {
		name    string
		initial *string
		want    string
		result  GitignoreResult
	}{
		{"missing file", nil, "out/\n.ceres.lock\n", GitignoreUpdated},
		{"appends after unterminated line", strPtr("target"), "target\nout/\n.ceres.lock\n", GitignoreUpdated},
		{"entries without slash count", strPtr("out\n.ceres.lock\n"), "out\n.ceres.lock\n", GitignoreUnchanged},
		{"only missing entries added", strPtr("out/\n"), "out/\n.ceres.lock\n", GitignoreUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".gitignore")
			if tt.initial != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.initial), 0644))
			}

			res, err := EnsureGitignore(fsys, path, VerifierIgnores("out")...)
			require.NoError(t, err)
			assert.Equal(t, tt.result, res)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func strPtr(s string) *string { return &s }
