// Package config loads the JSON configuration file that points this
// tool at a game install, an output directory and the external helper
// binaries it shells out to. It keeps the teacher's shape of a small
// set of package-level, mutable settings (GetEncoding/SetEncoding,
// GetGOWVersion/SetGOWVersion in the original) alongside a struct
// loaded once from disk.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type DdsConversion struct {
	Format            string `json:"format"`
	Quality           int    `json:"quality"`
	PreserveOriginals bool   `json:"preserveOriginals"`
}

type Conversion struct {
	Dds DdsConversion `json:"dds"`
}

type Tools struct {
	Libggpk3 string `json:"libggpk3"`
	Pypoe    string `json:"pypoe"`
	Ooz      string `json:"ooz"`
}

type Config struct {
	Poe2Path   string              `json:"poe2Path"`
	OutputDir  string              `json:"outputDir"`
	CacheDir   string              `json:"cacheDir"`
	Threads    int                 `json:"threads"`
	SchemaPath string              `json:"schemaPath"`
	Tools      Tools               `json:"tools"`
	Conversion Conversion          `json:"conversion"`
	Extraction ExtractionPatterns  `json:"extraction"`
}

type ExtractionPatterns struct {
	Patterns map[string][]string `json:"patterns"`
}

const (
	envSchemaPath = "GGPKASSETS_SCHEMA_PATH"
	envPoe2Path   = "GGPKASSETS_POE2_PATH"
)

func defaults() Config {
	return Config{
		OutputDir:  "./extracted",
		CacheDir:   "./cache",
		Threads:    4,
		SchemaPath: "./schema.min.json",
		Conversion: Conversion{
			Dds: DdsConversion{Format: "png", Quality: 90, PreserveOriginals: false},
		},
	}
}

// Load reads a JSON configuration document from path, filling unset
// fields with defaults, then applies the two environment-variable
// overrides documented for schemaPath and poe2Path.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling config %q", path)
	}

	if cfg.Poe2Path == "" {
		return nil, errors.Errorf("config %q: poe2Path is required", path)
	}

	if v := os.Getenv(envSchemaPath); v != "" {
		cfg.SchemaPath = v
	}
	if v := os.Getenv(envPoe2Path); v != "" {
		cfg.Poe2Path = v
	}

	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	cfg.CacheDir = filepath.Clean(cfg.CacheDir)

	return &cfg, nil
}
