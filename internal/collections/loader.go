package collections

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader reads the list of collections to export from a local file
type Loader struct {
	path string
}

// NewLoader creates a new collections loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// tomlFile is the document layout for TOML collection lists, which cannot
// have a bare array at the top level.
type tomlFile struct {
	Collections []models.Collection `toml:"collections"`
}

// Load reads and validates the collections file (JSON, YAML or TOML)
func (l *Loader) Load() ([]models.Collection, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collections file: %w", err)
	}

	var list []models.Collection
	switch ext {
	case ".json", ".yaml", ".yml":
		// JSON is a subset of YAML, so one decoder covers both
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse collections file %s: %w", l.path, err)
		}
	case ".toml":
		var doc tomlFile
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse collections file %s: %w", l.path, err)
		}
		list = doc.Collections
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .yaml, .yml, .toml)", ext)
	}

	if err := validate(list); err != nil {
		return nil, fmt.Errorf("invalid collections file %s: %w", l.path, err)
	}

	slog.Debug("Loaded collections", "path", l.path, "count", len(list))

	return list, nil
}

func validate(list []models.Collection) error {
	for i, c := range list {
		if strings.TrimSpace(c.UUID) == "" {
			return fmt.Errorf("collection %d: uuid is required", i)
		}
		if _, err := uuid.Parse(c.UUID); err != nil {
			return fmt.Errorf("collection %d: invalid uuid %q: %w", i, c.UUID, err)
		}
	}
	return nil
}
