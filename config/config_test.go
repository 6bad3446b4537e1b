package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingPathReturnsZeroConfig(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("Load(\"\") = %+v, want zero value", cfg)
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load(missing file): %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("Load(missing file) = %+v, want zero value", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minidb.yaml")
	contents := "path: /var/lib/minidb/db\ndata_size: 64\ncache_size: 512\nhttp_addr: 127.0.0.1:8080\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{Path: "/var/lib/minidb/db", DataSize: 64, CacheSize: 512, HTTPAddr: "127.0.0.1:8080"}
	if cfg != want {
		t.Fatalf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoadJSONCTolerantOfCommentsAndTrailingCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minidb.jsonc")
	contents := `{
		// where the database lives
		"path": "/var/lib/minidb/db",
		"data_size": 32,
	}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadJSONC(path)
	if err != nil {
		t.Fatalf("LoadJSONC: %v", err)
	}
	if cfg.Path != "/var/lib/minidb/db" || cfg.DataSize != 32 {
		t.Fatalf("LoadJSONC() = %+v, want path=/var/lib/minidb/db data_size=32", cfg)
	}
}

func TestMergeOverlaysOnlyNonZeroFields(t *testing.T) {
	base := Config{Path: "base-path", DataSize: 16, CacheSize: 256, HTTPAddr: "base-addr"}
	overlay := Config{DataSize: 64}

	got := Merge(base, overlay)
	want := Config{Path: "base-path", DataSize: 64, CacheSize: 256, HTTPAddr: "base-addr"}
	if got != want {
		t.Fatalf("Merge() = %+v, want %+v", got, want)
	}
}
