package config

import (
	"net/url"
	"path/filepath"

	"github.com/mercury-protocol/ceres/internal/errors"
)

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"text": true, "json": true}
)

// Validate checks the merged configuration. Failures are E_CONFIG_INVALID
// with the offending key in the "field" detail.
func Validate(cfg Config) error {
	required := []struct {
		field, value string
	}{
		{"toolchain.cargo", cfg.Toolchain.Cargo},
		{"toolchain.generator_plugin", cfg.Toolchain.GeneratorPlugin},
		{"layout.verifier_dir", cfg.Layout.VerifierDir},
		{"layout.out_dir", cfg.Layout.OutDir},
		{"manifest.host_marker", cfg.Manifest.HostMarker},
		{"manifest.guest_marker", cfg.Manifest.GuestMarker},
		{"manifest.zkvm_dependency", cfg.Manifest.ZKVMDependency},
		{"starter.owner", cfg.Starter.Owner},
		{"starter.repo", cfg.Starter.Repo},
	}
	for _, r := range required {
		if r.value == "" {
			return invalid(r.field, "must not be empty")
		}
	}

	if filepath.IsAbs(cfg.Layout.VerifierDir) {
		return invalid("layout.verifier_dir", "must be relative to the project root")
	}
	if filepath.IsAbs(cfg.Layout.OutDir) {
		return invalid("layout.out_dir", "must be relative to the verifier directory")
	}
	if cfg.Manifest.HostMarker == cfg.Manifest.GuestMarker {
		return invalid("manifest.guest_marker", "must differ from manifest.host_marker")
	}
	if cfg.Starter.Concurrency <= 0 {
		return invalid("starter.concurrency", "must be positive")
	}
	if u, err := url.Parse(cfg.Starter.APIBase); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("starter.api_base", "must be an http(s) URL")
	}
	if !logLevels[cfg.Logging.Level] {
		return invalid("logging.level", "must be one of debug, info, warn, error")
	}
	if !logFormats[cfg.Logging.Format] {
		return invalid("logging.format", "must be text or json")
	}
	return nil
}

func invalid(field, msg string) error {
	return errors.NewWithDetails(errors.EConfigInvalid, field+" "+msg, map[string]string{"field": field})
}
