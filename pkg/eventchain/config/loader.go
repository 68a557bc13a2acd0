package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// decoders maps file extensions to document parsers.
var decoders = map[string]func([]byte) (Config, error){
	".yaml": FromYAML,
	".yml":  FromYAML,
	".json": FromJSON,
	".toml": FromTOML,
}

// FromFile reads path and parses it according to its extension
// (.yaml, .yml, .json or .toml).
func FromFile(path string) (Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return decode(data)
}

// FromYAML parses a YAML document.
func FromYAML(data []byte) (Config, error) {
	return decode("yaml", data, yaml.Unmarshal)
}

// FromJSON parses a JSON document.
func FromJSON(data []byte) (Config, error) {
	return decode("json", data, json.Unmarshal)
}

// FromTOML parses a TOML document. Integers decode as int64.
func FromTOML(data []byte) (Config, error) {
	return decode("toml", data, toml.Unmarshal)
}

func decode(format string, data []byte, unmarshal func([]byte, any) error) (Config, error) {
	var doc map[string]any
	if err := unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", format, err)
	}
	return New(doc), nil
}
