package paths

import (
	"path/filepath"
	"testing"
)

// mapEnv is a simple map-backed Env implementation for testing.
type mapEnv map[string]string

func (m mapEnv) Get(key string) string {
	return m[key]
}

func TestConfigDir(t *testing.T) {
	home := filepath.FromSlash("/home/testuser")

	tests := []struct {
		name     string
		env      mapEnv
		isDarwin bool
		want     string
	}{
		{
			name:     "CERES_CONFIG_DIR override (darwin)",
			env:      mapEnv{"CERES_CONFIG_DIR": "/custom/config"},
			isDarwin: true,
			want:     "/custom/config",
		},
		{
			name:     "CERES_CONFIG_DIR override (linux)",
			env:      mapEnv{"CERES_CONFIG_DIR": "/custom/config"},
			isDarwin: false,
			want:     "/custom/config",
		},
		{
			name:     "darwin default ignores XDG",
			env:      mapEnv{"XDG_CONFIG_HOME": "/xdg/config"},
			isDarwin: true,
			want:     filepath.FromSlash("/home/testuser/Library/Preferences/ceres"),
		},
		{
			name:     "XDG_CONFIG_HOME fallback (linux)",
			env:      mapEnv{"XDG_CONFIG_HOME": "/xdg/config"},
			isDarwin: false,
			want:     filepath.FromSlash("/xdg/config/ceres"),
		},
		{
			name:     "default fallback (linux)",
			env:      mapEnv{},
			isDarwin: false,
			want:     filepath.FromSlash("/home/testuser/.config/ceres"),
		},
		{
			name:     "override takes precedence over XDG",
			env:      mapEnv{"CERES_CONFIG_DIR": "/override", "XDG_CONFIG_HOME": "/xdg/config"},
			isDarwin: false,
			want:     "/override",
		},
		{
			name:     "tilde not expanded",
			env:      mapEnv{"CERES_CONFIG_DIR": "~/cfg"},
			isDarwin: false,
			want:     "~/cfg",
		},
		{
			name:     "empty override ignored",
			env:      mapEnv{"CERES_CONFIG_DIR": ""},
			isDarwin: false,
			want:     filepath.FromSlash("/home/testuser/.config/ceres"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConfigDirWithOS(tt.env, home, tt.isDarwin)
			if got != tt.want {
				t.Errorf("ConfigDirWithOS() = %q, want %q", got, tt.want)
			}
		})
	}
}
