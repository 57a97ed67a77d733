// Package catalog loads the request-type catalog from YAML.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type file struct {
	RequestTypes []domain.RequestType `yaml:"requestTypes"`
}

// Default returns the embedded catalog.
func Default() (domain.Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog file. An empty path returns the embedded default.
func Load(path string) (domain.Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML. Unknown keys are rejected.
func Parse(data []byte) (domain.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validate(f.RequestTypes); err != nil {
		return domain.Catalog{}, err
	}
	return domain.NewCatalog(f.RequestTypes), nil
}

func validate(types []domain.RequestType) error {
	if len(types) == 0 {
		return errors.New("catalog has no request types")
	}
	seen := make(map[string]struct{}, len(types))
	for i, t := range types {
		if t.ID == "" {
			return fmt.Errorf("request type %d: id is required", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("request type %q: duplicate id", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.DisplayName == "" {
			return fmt.Errorf("request type %q: displayName is required", t.ID)
		}
		if t.Color != "" && !colorPattern.MatchString(t.Color) {
			return fmt.Errorf("request type %q: invalid color %q", t.ID, t.Color)
		}
	}
	return nil
}
