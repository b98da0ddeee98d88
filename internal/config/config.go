// Package config loads the small JSON configuration cmd/pipelinedemo runs
// with. The pack carries no YAML dependency anywhere, so this is decoded
// with the standard library encoding/json rather than reaching for one.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DemoConfig configures a single demo run: cache sizes and the output
// image's dimensions and path.
type DemoConfig struct {
	Width              uint32 `json:"width"`
	Height             uint32 `json:"height"`
	OutputPath         string `json:"output_path"`
	PipelineCacheSize  int    `json:"pipeline_cache_size"`
	TextureCacheSize   int    `json:"texture_cache_size"`
	BufferCacheSize    int    `json:"buffer_cache_size"`
}

// Default returns the configuration cmd/pipelinedemo uses when no config
// file is supplied.
func Default() DemoConfig {
	return DemoConfig{
		Width:             256,
		Height:            256,
		OutputPath:        "tmp/pipelinedemo.png",
		PipelineCacheSize: 100,
		TextureCacheSize:  100,
		BufferCacheSize:   100,
	}
}

// Load reads and decodes a DemoConfig from path. Fields the file does not
// set keep their Default values; a field the file sets explicitly, even to
// zero, takes the file's value.
func Load(path string) (DemoConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return DemoConfig{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DemoConfig{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	return cfg, nil
}
