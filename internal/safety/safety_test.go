package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jeremyspencer39171/rascal/internal/project"
)

func TestCheckPath(t *testing.T) {
	root := t.TempDir()
	g, err := NewGuard(root)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative inside", "models/custom.py", false},
		{"absolute inside", filepath.Join(root, "custom.m"), false},
		{"dot", ".", false},
		{"parent escape", "../outside.py", true},
		{"nested escape", "models/../../outside.py", true},
		{"absolute outside", "/etc/passwd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckPath(%q) = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCustomFiles(t *testing.T) {
	root := t.TempDir()
	g, err := NewGuard(root)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "model.py"), []byte("def model(): pass\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := &project.Problem{
		Name: "p",
		CustomFiles: []project.CustomFile{
			{Name: "model", Path: "model.py", Language: project.LanguagePython},
		},
	}
	if err := g.ValidateCustomFiles(p); err != nil {
		t.Errorf("ValidateCustomFiles = %v, want nil", err)
	}

	p.CustomFiles[0].Path = "missing.py"
	if err := g.ValidateCustomFiles(p); err == nil {
		t.Error("missing custom file passed validation")
	}

	p.CustomFiles[0].Path = "../sneaky.py"
	if err := g.ValidateCustomFiles(p); err == nil {
		t.Error("custom file outside the project tree passed validation")
	}
}

func TestValidateCustomFilesNoFiles(t *testing.T) {
	g, err := NewGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	if err := g.ValidateCustomFiles(&project.Problem{Name: "plain"}); err != nil {
		t.Errorf("ValidateCustomFiles on a file-free problem = %v", err)
	}
}

func TestProjectRootResolved(t *testing.T) {
	g, err := NewGuard(".")
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	if !filepath.IsAbs(g.ProjectRoot()) {
		t.Errorf("ProjectRoot() = %q, want absolute", g.ProjectRoot())
	}
}
