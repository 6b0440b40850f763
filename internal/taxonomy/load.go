package taxonomy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadDataset reads and decodes a compiled keys file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	d, err := ParseDataset(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d, nil
}

// ParseDataset decodes a dataset from a reader.
func ParseDataset(r io.Reader) (*Dataset, error) {
	var d Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if len(d.Navigation.Criteria) == 0 {
		return nil, fmt.Errorf("dataset has no navigation criteria")
	}
	return &d, nil
}

// SaveDataset writes a dataset as compact JSON.
func SaveDataset(d *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}
