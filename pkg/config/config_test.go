package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/pagedex.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}

	cfg, _ := Load("")
	if cfg.Storage.PageSize != 4096 {
		t.Errorf("default page_size: got %d", cfg.Storage.PageSize)
	}
	if cfg.Fagin.InitialDirectorySize != 4 {
		t.Errorf("default initial_directory_size: got %d", cfg.Fagin.InitialDirectorySize)
	}
	if cfg.LK.DirectorySize != 16 {
		t.Errorf("default lk directory_size: got %d", cfg.LK.DirectorySize)
	}
	if cfg.LK.MaxHashFamilies != 0x10000 {
		t.Errorf("default max_hash_families: got %d", cfg.LK.MaxHashFamilies)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
storage:
  page_size: 8192
  data_path: "test_data"
fagin:
  initial_directory_size: 8
lk:
  directory_size: 32
  max_hash_families: 256
cache:
  enabled: true
  max_pages: 2048
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.PageSize != 8192 {
		t.Errorf("page_size: got %d", cfg.Storage.PageSize)
	}
	if cfg.Storage.DataPath != "test_data" {
		t.Errorf("data_path: got %s", cfg.Storage.DataPath)
	}
	if cfg.Fagin.InitialDirectorySize != 8 {
		t.Errorf("initial_directory_size: got %d", cfg.Fagin.InitialDirectorySize)
	}
	if cfg.LK.DirectorySize != 32 {
		t.Errorf("lk directory_size: got %d", cfg.LK.DirectorySize)
	}
	if cfg.LK.MaxHashFamilies != 256 {
		t.Errorf("max_hash_families: got %d", cfg.LK.MaxHashFamilies)
	}
	if !cfg.Cache.Enabled {
		t.Errorf("cache.enabled: got false, want true")
	}
	if cfg.Cache.MaxPages != 2048 {
		t.Errorf("cache.max_pages: got %d", cfg.Cache.MaxPages)
	}
}
