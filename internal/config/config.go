// Package config loads viewer configuration from an optional YAML file,
// falling back to built-in defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the user-tunable settings of the viewer.
type Config struct {
	// CellSize is the edge length of one grid cell in pixels.
	CellSize int `yaml:"cell_size"`
	// CellSpacing is the gap between grid cells in pixels.
	CellSpacing int `yaml:"cell_spacing"`
	// ThumbSize is the edge length of cached square thumbnails in pixels.
	ThumbSize int `yaml:"thumb_size"`
	// Extensions is the image file extension allow-list (with leading dot).
	Extensions []string `yaml:"extensions"`
	// SocketPath is the single-instance activation socket path.
	SocketPath string `yaml:"socket_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CellSize:    250,
		CellSpacing: 20,
		ThumbSize:   256,
		Extensions:  []string{".jpg", ".jpeg", ".png", ".webp"},
		SocketPath:  filepath.Join(os.TempDir(), "fastview.sock"),
	}
}

// Load loads configuration from the default location
// (~/.config/fastview/config.yaml).
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(home, ".config", "fastview", "config.yaml"))
}

// LoadFile loads configuration from a specific file path. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge loaded values over defaults, keeping defaults for unset fields.
	if loaded.CellSize > 0 {
		cfg.CellSize = loaded.CellSize
	}
	if loaded.CellSpacing > 0 {
		cfg.CellSpacing = loaded.CellSpacing
	}
	if loaded.ThumbSize > 0 {
		cfg.ThumbSize = loaded.ThumbSize
	}
	if len(loaded.Extensions) > 0 {
		cfg.Extensions = loaded.Extensions
	}
	if loaded.SocketPath != "" {
		cfg.SocketPath = loaded.SocketPath
	}

	return cfg, nil
}
