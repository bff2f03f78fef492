// Package config holds the analyzer's recognized options (spec §6). It is a
// plain value object: CLI flag parsing and file-format dispatch are out of
// scope (spec §1, "CLI/HTTP dispatch" is an external collaborator), so the
// only convenience loader kept here is LoadYAML, wiring the teacher's
// existing gopkg.in/yaml.v3 dependency into a concern SPEC_FULL.md actually
// names instead of leaving it unbound.
package config

import (
	"context"

	"github.com/viant/afs"

	"github.com/viant/codegraph/cgerrors"
	"gopkg.in/yaml.v3"
)

// Config is the recognized configuration surface of the analyzer core.
type Config struct {
	// ProjectID is embedded in every CanonicalId.
	ProjectID string `yaml:"projectId"`
	// SupportedExtensions is the ordered list used both for scanning and
	// for import-extension resolution (e.g. [".ts", ".tsx", ".js"]).
	SupportedExtensions []string `yaml:"supportedExtensions"`
	// IgnorePatterns lists directory/file glob patterns to skip.
	IgnorePatterns []string `yaml:"ignorePatterns"`
	// PathAliases maps an import prefix to a directory applied during
	// import resolution (e.g. "@app/" -> "src/app").
	PathAliases map[string]string `yaml:"pathAliases"`
	// BatchSize is the max mutations per batch submitted to the graph store.
	BatchSize int `yaml:"batchSize"`
	// MaxWorkers is the parallelism cap for per-file conversion.
	MaxWorkers int `yaml:"maxWorkers"`
	// CacheDir is the location of the EntityMap file.
	CacheDir string `yaml:"cacheDir"`
}

// Default returns a Config with sane defaults for BatchSize/MaxWorkers;
// ProjectID and CacheDir must still be supplied by the caller.
func Default() *Config {
	return &Config{
		SupportedExtensions: []string{
			".ts", ".tsx", ".js", ".jsx", ".py",
			".c", ".h", ".cpp", ".hpp", ".cc", ".hh",
			".java", ".cs", ".go", ".sql",
		},
		PathAliases: map[string]string{},
		BatchSize:   500,
		MaxWorkers:  8,
	}
}

// Validate enforces the invariants the rest of the pipeline depends on,
// returning a *cgerrors.ConfigError (spec §7: fatal, the analyzer does not
// run) on the first violation found.
func (c *Config) Validate() error {
	if c == nil {
		return cgerrors.NewConfigError("config", "must not be nil")
	}
	if c.ProjectID == "" {
		return cgerrors.NewConfigError("projectId", "must not be empty")
	}
	if len(c.SupportedExtensions) == 0 {
		return cgerrors.NewConfigError("supportedExtensions", "must list at least one extension")
	}
	if c.BatchSize <= 0 {
		return cgerrors.NewConfigError("batchSize", "must be a positive integer")
	}
	if c.MaxWorkers <= 0 {
		return cgerrors.NewConfigError("maxWorkers", "must be a positive integer")
	}
	if c.CacheDir == "" {
		return cgerrors.NewConfigError("cacheDir", "must not be empty")
	}
	return nil
}

// LoadYAML reads a YAML document at path into a new Config layered over
// Default(), validating the result before returning it. Reads go through
// afs.Service rather than the os package directly, the same convention
// entitymap.EntityMap follows, so a config file can live on any backend
// afs supports (local disk, S3, GCS) without a separate code path here.
func LoadYAML(path string) (*Config, error) {
	raw, err := afs.New().DownloadWithURL(context.Background(), path)
	if err != nil {
		return nil, cgerrors.Wrap(err, "reading config file")
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, cgerrors.Wrap(err, "parsing config yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
