package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LoadFixture reads a raw testdata payload, such as a backend response.
func LoadFixture(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return data, nil
}

// LoadGolden decodes a JSON golden file into v. Unknown fields are an error
// so a golden file cannot silently drift from the type it describes.
func LoadGolden(path string, v any) error {
	data, err := LoadFixture(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("golden %s: %w", path, err)
	}
	return nil
}
