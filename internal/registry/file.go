package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk layout of a registry override file:
//
//	categories:
//	  quality:
//	    priorities: [success_rate, risk, cost]
//	    commands:
//	      - name: /run-tests
//	        risk: none
//	        cost: low
//	        baseline_success_rate: 0.8
type fileFormat struct {
	Categories map[string]Category `yaml:"categories"`
}

// LoadFile reads a YAML override file and layers its categories over base.
// A category present in the file replaces the base category wholesale.
func LoadFile(path string, base *Registry) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry file: %w", err)
	}
	return Parse(data, base)
}

// Parse layers the YAML document in data over base.
func Parse(data []byte, base *Registry) (*Registry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing registry file: %w", err)
	}

	merged := make(map[string]Category)
	if base != nil {
		for name, c := range base.categories {
			merged[name] = c
		}
	}
	for name, c := range f.Categories {
		merged[name] = c
	}
	return New(merged)
}
