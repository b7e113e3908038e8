package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// Load reads and validates a pattern file. The codec is chosen by file
// extension: .yaml/.yml for YAML, .mpk/.bin for msgpack.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pattern: read %s: %w", path, err)
	}
	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("pattern: parse %s: %w", path, err)
		}
	case ".mpk", ".bin":
		if err := msgpack.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("pattern: parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("pattern: %s: unsupported extension %q (want .yaml, .yml, .mpk or .bin)", path, ext)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("pattern: %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the pattern file to path, choosing the codec by extension
// the same way [Load] does.
func Save(path string, f *File) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(f)
	case ".mpk", ".bin":
		data, err = msgpack.Marshal(f)
	default:
		return fmt.Errorf("pattern: %s: unsupported extension %q (want .yaml, .yml, .mpk or .bin)", path, ext)
	}
	if err != nil {
		return fmt.Errorf("pattern: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pattern: write %s: %w", path, err)
	}
	return nil
}
