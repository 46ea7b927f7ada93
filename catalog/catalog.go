package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectSlugAnnotation names the source repository as "owner/repo"
const ProjectSlugAnnotation = "github.com/project-slug"

// ErrNoComponent is returned when no document in the catalog carries metadata.name
var ErrNoComponent = errors.New("no component metadata found in catalog")

// Component is the tracked component described by the catalog file
type Component struct {
	Name        string
	ProjectSlug string
}

type document struct {
	Metadata struct {
		Name        string            `yaml:"name"`
		Annotations map[string]string `yaml:"annotations"`
	} `yaml:"metadata"`
}

// Load reads the component from a (possibly multi-document) catalog-info.yaml.
// The first document with a metadata.name wins.
func Load(path string) (Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Component{}, fmt.Errorf("catalog file %s not found", path)
		}
		return Component{}, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	component, err := Parse(data)
	if err != nil {
		return Component{}, fmt.Errorf("%s: %w", path, err)
	}
	return component, nil
}

// Parse decodes catalog YAML held in memory
func Parse(data []byte) (Component, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc document
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Component{}, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}

		if doc.Metadata.Name == "" {
			continue
		}
		return Component{
			Name:        doc.Metadata.Name,
			ProjectSlug: doc.Metadata.Annotations[ProjectSlugAnnotation],
		}, nil
	}
	return Component{}, ErrNoComponent
}
