package rules

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// DefaultRegistry returns a registry loaded with the embedded default rule
// set. Callers needing other rule files use NewRegistry plus Load/LoadDir.
func DefaultRegistry() (*Registry, error) {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		return nil, fmt.Errorf("embedded rule defaults: %w", err)
	}
	r := NewRegistry()
	if err := LoadDir(r, sub); err != nil {
		return nil, fmt.Errorf("load embedded rule defaults: %w", err)
	}
	return r, nil
}
