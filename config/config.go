// Package config loads MiniDb's runtime configuration: the handful of
// settings that control which database file a cmd/ entrypoint opens, how
// big its read cache is, and where its HTTP inspection API listens.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Config holds the settings a cmd/ entrypoint needs beyond its flags.
type Config struct {
	Path      string `yaml:"path" json:"path"`
	DataSize  uint64 `yaml:"data_size" json:"data_size"`
	CacheSize int    `yaml:"cache_size" json:"cache_size"`
	HTTPAddr  string `yaml:"http_addr" json:"http_addr"`
}

// Load reads a YAML config file from path. If path is empty or the file
// does not exist, it returns a zero Config and nil error rather than
// failing — a missing config file is expected when a tool is driven
// entirely by flags.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// LoadJSONC reads a JSON-with-comments config file, standardizing it to
// plain JSON first so trailing commas and // comments are tolerated in a
// hand-edited MiniDb config, tolerating a missing path the same way Load
// does.
func LoadJSONC(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return cfg, fmt.Errorf("invalid JSONC in %q: %w", path, err)
	}
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid JSON in %q: %w", path, err)
	}
	return cfg, nil
}

// Merge overlays non-zero fields of overlay onto base and returns the
// result: a global config file, then a more specific config file, then
// CLI flags, each only replacing fields the next layer actually set.
func Merge(base, overlay Config) Config {
	if overlay.Path != "" {
		base.Path = overlay.Path
	}
	if overlay.DataSize != 0 {
		base.DataSize = overlay.DataSize
	}
	if overlay.CacheSize != 0 {
		base.CacheSize = overlay.CacheSize
	}
	if overlay.HTTPAddr != "" {
		base.HTTPAddr = overlay.HTTPAddr
	}
	return base
}
