// Package config loads the storage and indexing knobs a pagedex run is
// configured with, mirroring the teacher's load-with-defaults shape:
// sane defaults applied in code, then overridden by whatever a YAML file
// on disk supplies.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Fagin   FaginConfig   `yaml:"fagin"`
	LK      LKConfig      `yaml:"lk"`
	Cache   CacheConfig   `yaml:"cache"`
}

// StorageConfig sizes the page backend shared by every index.
type StorageConfig struct {
	PageSize int    `yaml:"page_size"`
	DataPath string `yaml:"data_path"`
}

// FaginConfig sizes a Fagin extendible hash table's initial directory.
type FaginConfig struct {
	InitialDirectorySize int `yaml:"initial_directory_size"`
}

// LKConfig bounds a Larson-Kalja table's directory and hash-family
// growth.
type LKConfig struct {
	DirectorySize   int `yaml:"directory_size"`
	MaxHashFamilies int `yaml:"max_hash_families"`
}

// CacheConfig sizes the optional ristretto-backed page cache in front of
// a Backend.
type CacheConfig struct {
	Enabled  bool  `yaml:"enabled"`
	MaxPages int64 `yaml:"max_pages"`
}

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			PageSize: 4096,
			DataPath: "pagedex_data",
		},
		Fagin: FaginConfig{
			InitialDirectorySize: 4,
		},
		LK: LKConfig{
			DirectorySize:   16,
			MaxHashFamilies: 0x10000,
		},
		Cache: CacheConfig{
			Enabled:  false,
			MaxPages: 1024,
		},
	}
}

// Load reads configPath, falling back to configs/pagedex.yaml and
// pagedex.yaml in the working directory when configPath is empty, and
// finally to defaults if neither is found.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath == "" {
		for _, p := range []string{"configs/pagedex.yaml", "pagedex.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.PageSize <= 0 {
		cfg.Storage.PageSize = 4096
	}
	if cfg.Storage.DataPath == "" {
		cfg.Storage.DataPath = "pagedex_data"
	}
	if cfg.Fagin.InitialDirectorySize <= 0 {
		cfg.Fagin.InitialDirectorySize = 4
	}
	if cfg.LK.DirectorySize <= 0 {
		cfg.LK.DirectorySize = 16
	}
	if cfg.LK.MaxHashFamilies <= 0 {
		cfg.LK.MaxHashFamilies = 0x10000
	}
	if cfg.Cache.MaxPages <= 0 {
		cfg.Cache.MaxPages = 1024
	}
}
