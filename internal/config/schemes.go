package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scheme is one entry in the schemes config file: a mutual fund scheme and
// the Groww page its facts are scraped from.
type Scheme struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
}

type schemesFile struct {
	Schemes []Scheme `yaml:"schemes"`
}

// LoadSchemes reads the scheme list from a YAML config file. Every entry
// must carry a name and a url; the list must not be empty.
func LoadSchemes(path string) ([]Scheme, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schemes config: %w", err)
	}

	var file schemesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schemes config: %w", err)
	}

	if len(file.Schemes) == 0 {
		return nil, fmt.Errorf("schemes config %s lists no schemes", path)
	}
	for i, scheme := range file.Schemes {
		if scheme.Name == "" {
			return nil, fmt.Errorf("scheme at index %d is missing a name", i)
		}
		if scheme.URL == "" {
			return nil, fmt.Errorf("scheme %q is missing a url", scheme.Name)
		}
	}

	return file.Schemes, nil
}
