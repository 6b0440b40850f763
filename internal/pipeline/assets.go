package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// AssetPaths locates the three source files the build consumes.
type AssetPaths struct {
	Codes    string
	Criteria string
	Features string
}

// DefaultAssetPaths matches the layout of the source knowledge base.
func DefaultAssetPaths(dir string) AssetPaths {
	return AssetPaths{
		Codes:    dir + "/2022_KST_codes.json",
		Criteria: dir + "/2022_KST_criteria_EN.json",
		Features: dir + "/2022_KST_EN_featurelist.json",
	}
}

// LoadSources reads and shape-checks the asset files.
func LoadSources(paths AssetPaths) (*Sources, error) {
	src := &Sources{}

	if err := loadJSON(paths.Codes, &src.Codes); err != nil {
		return nil, err
	}
	if len(src.Codes) == 0 {
		return nil, fmt.Errorf("%s: expected a non-empty array of {code, name}", paths.Codes)
	}

	if err := loadJSON(paths.Criteria, &src.Criteria); err != nil {
		return nil, err
	}
	if len(src.Criteria) == 0 {
		return nil, fmt.Errorf("%s: expected a non-empty object keyed by crit code", paths.Criteria)
	}

	if err := loadJSON(paths.Features, &src.Features); err != nil {
		return nil, err
	}
	if len(src.Features) == 0 {
		return nil, fmt.Errorf("%s: expected a non-empty array of {name, description}", paths.Features)
	}

	return src, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}
