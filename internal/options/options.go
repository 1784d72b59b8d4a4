// Package options assembles the hosting provider option bag from the
// config file, the environment, option files and command-line flags.
package options

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the environment prefix for option bag overrides
const EnvPrefix = "PACKHOST_OPTIONS"

// ParseKV parses a key=value pair, attempting type inference for the value
func ParseKV(kvPair string) (string, any, error) {
	parts := strings.SplitN(kvPair, "=", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid format, expected key=value: %s", kvPair)
	}

	key := strings.TrimSpace(parts[0])
	if key == "" {
		return "", nil, fmt.Errorf("empty key in key=value pair")
	}

	return key, inferValue(strings.TrimSpace(parts[1])), nil
}

func inferValue(valueStr string) any {
	// Integers first, so "1" is not read as true. Numbers only count when
	// they print back unchanged, so "007" or "1e3" stay strings.
	if intVal, err := strconv.Atoi(valueStr); err == nil && strconv.Itoa(intVal) == valueStr {
		return intVal
	}

	if floatVal, err := strconv.ParseFloat(valueStr, 64); err == nil &&
		strconv.FormatFloat(floatVal, 'f', -1, 64) == valueStr {
		return floatVal
	}

	if valueStr == "true" || valueStr == "false" {
		boolVal, _ := strconv.ParseBool(valueStr)
		return boolVal
	}

	return valueStr
}

// ParseJSON parses a JSON object
func ParseJSON(jsonStr string) (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return result, nil
}

// ParseFile reads an option file. Files ending in .yaml or .yml are read
// as YAML, anything else as JSON.
func ParseFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}

	var result map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("invalid YAML in file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("invalid JSON in file: %w", err)
		}
	}
	return result, nil
}

// ParseEnv reads PREFIX (a JSON object) and PREFIX_* variables.
// Variable suffixes are lower-cased to form keys.
func ParseEnv(prefix string) map[string]any {
	result := make(map[string]any)

	if jsonStr := os.Getenv(prefix); jsonStr != "" {
		if parsed, err := ParseJSON(jsonStr); err == nil {
			maps.Copy(result, parsed)
		}
	}

	envPrefix := prefix + "_"
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, value, ok := strings.Cut(env, "=")
		if !ok || value == "" {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
		result[key] = inferValue(value)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// Merge merges option maps; later maps override earlier ones
func Merge(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		maps.Copy(result, src)
	}
	return result
}

// Sources lists where option bag values come from
type Sources struct {
	Base      map[string]any // upload.options from the config file
	File      string
	JSON      string
	KV        []string
	EnvPrefix string
}

// Build assembles the option bag.
// Precedence: config file < env < options file < JSON string < key=value pairs.
func Build(src Sources) (map[string]any, error) {
	layers := []map[string]any{src.Base}

	prefix := src.EnvPrefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	layers = append(layers, ParseEnv(prefix))

	if src.File != "" {
		fileOpts, err := ParseFile(src.File)
		if err != nil {
			return nil, err
		}
		layers = append(layers, fileOpts)
	}

	if src.JSON != "" {
		jsonOpts, err := ParseJSON(src.JSON)
		if err != nil {
			return nil, err
		}
		layers = append(layers, jsonOpts)
	}

	if len(src.KV) > 0 {
		kvOpts := make(map[string]any)
		for _, kv := range src.KV {
			key, value, err := ParseKV(kv)
			if err != nil {
				return nil, err
			}
			kvOpts[key] = value
		}
		layers = append(layers, kvOpts)
	}

	return Merge(layers...), nil
}
