// Package paths resolves the per-user ceres directories following XDG
// conventions.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "ceres"

// ConfigDirEnv overrides the resolved config directory.
const ConfigDirEnv = "CERES_CONFIG_DIR"

// Env is the interface for environment variable lookups.
// Implementations must return "" for unset variables.
type Env interface {
	Get(key string) string
}

// OSEnv reads the process environment.
type OSEnv struct{}

// Get implements Env.
func (OSEnv) Get(key string) string { return os.Getenv(key) }

// ConfigDir returns the directory holding the user config file.
//
// Resolution order:
//  1. CERES_CONFIG_DIR (if set)
//  2. macOS: ~/Library/Preferences/ceres
//  3. XDG_CONFIG_HOME/ceres (if set)
//  4. ~/.config/ceres
//
// homeDir must be absolute. The filesystem is not touched and ~ inside env
// vars is taken literally.
func ConfigDir(env Env, homeDir string) string {
	return ConfigDirWithOS(env, homeDir, runtime.GOOS == "darwin")
}

// ConfigDirWithOS is ConfigDir with an explicit OS flag for testing.
func ConfigDirWithOS(env Env, homeDir string, isDarwin bool) string {
	if v := env.Get(ConfigDirEnv); v != "" {
		return v
	}
	if isDarwin {
		return filepath.Join(homeDir, "Library", "Preferences", appName)
	}
	if v := env.Get("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName)
	}
	return filepath.Join(homeDir, ".config", appName)
}
