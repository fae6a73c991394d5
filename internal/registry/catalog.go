package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// catalogFile is the YAML layout of an agent catalog.
//
//	agents:
//	  - id: 1
//	    capability: chatbot
//	    name: ChatBot AI
//	    price_per_query: 1000000000
//	    active: true
type catalogFile struct {
	Agents []domain.Agent `yaml:"agents"`
}

// LoadFile builds a registry from a YAML catalog. A missing owner takes the
// built-in default.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML catalog bytes.
func Parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse agent catalog: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, fmt.Errorf("agent catalog is empty")
	}

	for i := range file.Agents {
		a := &file.Agents[i]
		if a.Owner == "" {
			a.Owner = DefaultOwner
		}
	}

	r, err := New(file.Agents)
	if err != nil {
		return nil, fmt.Errorf("invalid agent catalog: %w", err)
	}
	return r, nil
}
