// Package config loads ceres settings from built-in defaults, the user
// config file, the project config file and the environment, in that order.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/paths"
)

// File names looked up by Load.
const (
	UserFileName    = "config.yaml"
	ProjectFileName = "ceres.yaml"
	DotEnvFileName  = ".env"
)

// Environment overrides.
const (
	EnvCargo        = "CERES_CARGO"
	EnvLogLevel     = "CERES_LOG_LEVEL"
	EnvStarterOwner = "CERES_STARTER_OWNER"
	EnvStarterRepo  = "CERES_STARTER_REPO"
	EnvStarterAPI   = "CERES_STARTER_API"
	EnvConcurrency  = "CERES_STARTER_CONCURRENCY"
)

// Config is the merged ceres configuration.
type Config struct {
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Layout    LayoutConfig    `yaml:"layout"`
	Manifest  ManifestConfig  `yaml:"manifest"`
	Starter   StarterConfig   `yaml:"starter"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Sources lists the files that contributed, in load order.
	Sources []string `yaml:"-"`
}

// ToolchainConfig names the external build toolchain.
type ToolchainConfig struct {
	Cargo           string `yaml:"cargo"`
	GeneratorPlugin string `yaml:"generator_plugin"` // cargo subcommand crate that provides `new`
}

// LayoutConfig describes the project tree, relative to the project root.
type LayoutConfig struct {
	VerifierDir string `yaml:"verifier_dir"`
	OutDir      string `yaml:"out_dir"` // relative to VerifierDir
}

// ManifestConfig drives dependency partitioning and manifest patching.
type ManifestConfig struct {
	HostMarker              string   `yaml:"host_marker"`
	GuestMarker             string   `yaml:"guest_marker"`
	ImplicitGuestDependency string   `yaml:"implicit_guest_dependency"`
	ZKVMDependency          string   `yaml:"zkvm_dependency"`
	StdFeatures             []string `yaml:"std_features"`
}

// StarterConfig points at the remote source of collector starter files.
type StarterConfig struct {
	Owner       string `yaml:"owner"`
	Repo        string `yaml:"repo"`
	APIBase     string `yaml:"api_base"`
	Concurrency int    `yaml:"concurrency"`
}

// LoggingConfig sets the default log level and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Toolchain: ToolchainConfig{
			Cargo:           "cargo",
			GeneratorPlugin: "cargo-risczero",
		},
		Layout: LayoutConfig{
			VerifierDir: "verifier",
			OutDir:      "out",
		},
		Manifest: ManifestConfig{
			HostMarker:              "Host",
			GuestMarker:             "Guest",
			ImplicitGuestDependency: `cid = "0.7.0"`,
			ZKVMDependency:          "risc0-zkvm",
			StdFeatures:             []string{"std"},
		},
		Starter: StarterConfig{
			Owner:       "mercury-protocol",
			Repo:        "ceres-p2p-helpers",
			APIBase:     "https://api.github.com",
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadOptions selects the files and environment Load reads.
type LoadOptions struct {
	UserConfigDir string    // "" skips the user file
	ProjectDir    string    // "" skips ceres.yaml and .env
	ExplicitPath  string    // replaces <ProjectDir>/ceres.yaml; must exist
	Env           paths.Env // nil means the process environment
}

// Load merges defaults, the user file, the project (or explicit) file and the
// environment, then validates the result. A .env file in ProjectDir supplies
// variables that are not set in Env.
func Load(fsys fs.FS, opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.UserConfigDir != "" {
		if err := mergeFile(fsys, filepath.Join(opts.UserConfigDir, UserFileName), false, &cfg); err != nil {
			return Config{}, err
		}
	}

	switch {
	case opts.ExplicitPath != "":
		if err := mergeFile(fsys, opts.ExplicitPath, true, &cfg); err != nil {
			return Config{}, err
		}
	case opts.ProjectDir != "":
		if err := mergeFile(fsys, filepath.Join(opts.ProjectDir, ProjectFileName), false, &cfg); err != nil {
			return Config{}, err
		}
	}

	env := opts.Env
	if env == nil {
		env = paths.OSEnv{}
	}
	if opts.ProjectDir != "" {
		dotenv, err := readDotEnv(fsys, filepath.Join(opts.ProjectDir, DotEnvFileName))
		if err != nil {
			return Config{}, err
		}
		if len(dotenv) > 0 {
			env = layeredEnv{primary: env, fallback: dotenv}
			cfg.Sources = append(cfg.Sources, filepath.Join(opts.ProjectDir, DotEnvFileName))
		}
	}
	if err := applyEnv(env, &cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes path over cfg. Only keys present in the file change cfg.
func mergeFile(fsys fs.FS, path string, required bool, cfg *Config) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		if os.IsNotExist(err) {
			return errors.NewWithDetails(errors.EConfigInvalid, "config file not found", map[string]string{"path": path})
		}
		return errors.WrapWithDetails(errors.EIO, "failed to read config file", err, map[string]string{"path": path})
	}

	if err := decodeKnownFields(data, cfg); err != nil {
		return errors.WrapWithDetails(errors.EConfigInvalid, "invalid config file", err, map[string]string{"path": path})
	}
	cfg.Sources = append(cfg.Sources, path)
	return nil
}

// decodeKnownFields decodes a single YAML document, rejecting unknown keys.
// An empty document is not an error.
func decodeKnownFields(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	var extra any
	if err := dec.Decode(&extra); !stderrors.Is(err, io.EOF) {
		return stderrors.New("multiple YAML documents are not supported")
	}
	return nil
}

func readDotEnv(fsys fs.FS, path string) (map[string]string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithDetails(errors.EIO, "failed to read .env", err, map[string]string{"path": path})
	}
	vars, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EConfigInvalid, "invalid .env file", err, map[string]string{"path": path})
	}
	return vars, nil
}

func applyEnv(env paths.Env, cfg *Config) error {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(env.Get(key)); v != "" {
			*dst = v
		}
	}
	set(EnvCargo, &cfg.Toolchain.Cargo)
	set(EnvLogLevel, &cfg.Logging.Level)
	set(EnvStarterOwner, &cfg.Starter.Owner)
	set(EnvStarterRepo, &cfg.Starter.Repo)
	set(EnvStarterAPI, &cfg.Starter.APIBase)

	if v := strings.TrimSpace(env.Get(EnvConcurrency)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.WrapWithDetails(errors.EConfigInvalid, EnvConcurrency+" must be an integer", err,
				map[string]string{"value": v})
		}
		cfg.Starter.Concurrency = n
	}
	return nil
}

// layeredEnv prefers primary and falls back to values read from .env, the
// same precedence godotenv.Load gives the process environment.
type layeredEnv struct {
	primary  paths.Env
	fallback map[string]string
}

func (e layeredEnv) Get(key string) string {
	if v := e.primary.Get(key); v != "" {
		return v
	}
	return e.fallback[key]
}
