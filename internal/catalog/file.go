package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type catalogFile struct {
	Components []ComponentSpec `json:"components"`
}

// LoadFile reads a JSON catalog file of the shape {"components": [...]}
// and returns it as an in-memory knowledge base.
func LoadFile(path string) (*MemoryKB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("catalog: file path is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return parseCatalog(raw)
}

func parseCatalog(raw []byte) (*MemoryKB, error) {
	var doc catalogFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(doc.Components) == 0 {
		return nil, fmt.Errorf("catalog: no components declared")
	}
	return NewMemoryKB(doc.Components...), nil
}
