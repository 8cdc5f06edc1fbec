// Package safety validates custom model files before they are handed to the
// engine or an interpreter bridge: user-supplied code only runs from inside
// the project tree.
package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremyspencer39171/rascal/internal/project"
)

// Guard constrains which custom model files a run may execute.
type Guard struct {
	projectRoot string
}

func NewGuard(projectRoot string) (*Guard, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	return &Guard{projectRoot: absRoot}, nil
}

// CheckPath verifies a file path resolves inside the project root.
func (g *Guard) CheckPath(path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.projectRoot, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(g.projectRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q outside project directory", path)
	}
	return nil
}

// ValidateCustomFiles checks every custom model file in the problem: the
// path must stay inside the project tree and the file must exist.
func (g *Guard) ValidateCustomFiles(p *project.Problem) error {
	for _, f := range p.CustomFiles {
		if err := g.CheckPath(f.Path); err != nil {
			return fmt.Errorf("custom file %q: %w", f.Name, err)
		}
		path := f.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(g.projectRoot, path)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("custom file %q: %w", f.Name, err)
		}
	}
	return nil
}

// ProjectRoot returns the resolved project root
func (g *Guard) ProjectRoot() string {
	return g.projectRoot
}
