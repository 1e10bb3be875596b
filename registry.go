package mdstream

import (
	"github.com/riverfjs/mdstream/internal/registry"
)

// Catalog is a read-only Registry built from component definitions.
type Catalog = registry.Catalog

// NewRegistry builds a Catalog from definitions.
func NewRegistry(defs ...Definition) (*Catalog, error) {
	return registry.New(defs...)
}

// ParseRegistry builds a Catalog from a YAML document.
func ParseRegistry(data []byte) (*Catalog, error) {
	return registry.Parse(data)
}

// LoadRegistry reads a YAML catalog file.
func LoadRegistry(path string) (*Catalog, error) {
	return registry.Load(path)
}
