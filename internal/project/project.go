// Package project defines the problem description handed to the fitting
// engine: parameters, layers, contrasts and any custom model files.
package project

import (
	"fmt"
	"strings"
)

// Language is the execution language of a custom model file.
type Language string

const (
	LanguagePython Language = "python"
	LanguageMatlab Language = "matlab"
	LanguageCpp    Language = "cpp"
)

// NeedsBridge reports whether the language requires an external interpreter
// bridge to be running before the engine can call into the file.
func (l Language) NeedsBridge() bool {
	return l == LanguageMatlab
}

// ParseLanguage parses a language name, case-insensitively.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(s)) {
	case LanguagePython:
		return LanguagePython, nil
	case LanguageMatlab:
		return LanguageMatlab, nil
	case LanguageCpp:
		return LanguageCpp, nil
	}
	return "", fmt.Errorf("unknown custom file language %q", s)
}

// Parameter is a single fittable quantity with bounds.
type Parameter struct {
	Name  string  `json:"name"`
	Min   float64 `json:"min"`
	Value float64 `json:"value"`
	Max   float64 `json:"max"`
	Fit   bool    `json:"fit"`
}

// Layer is a slab in the layered sample model, referencing parameters by name.
type Layer struct {
	Name      string `json:"name"`
	Thickness string `json:"thickness"`
	SLD       string `json:"sld"`
	Roughness string `json:"roughness"`
}

// Contrast pairs a measured dataset with the model that should reproduce it.
type Contrast struct {
	Name       string   `json:"name"`
	Data       string   `json:"data"`
	Background string   `json:"background"`
	Resolution string   `json:"resolution"`
	Model      []string `json:"model"`
}

// CustomFile is a user-supplied model function in some execution language.
type CustomFile struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Language Language `json:"language"`
}

// Problem is the full problem definition consumed by the engine. The runner
// treats it as opaque; it only travels across the process boundary.
type Problem struct {
	Name        string       `json:"name"`
	Parameters  []Parameter  `json:"parameters"`
	Layers      []Layer      `json:"layers"`
	Contrasts   []Contrast   `json:"contrasts"`
	CustomFiles []CustomFile `json:"custom_files,omitempty"`
}

// Validate checks internal consistency of the problem definition.
func (p *Problem) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("problem has no name")
	}
	seen := make(map[string]bool, len(p.Parameters))
	for _, param := range p.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter with empty name")
		}
		if seen[param.Name] {
			return fmt.Errorf("duplicate parameter %q", param.Name)
		}
		seen[param.Name] = true
		if param.Min > param.Max {
			return fmt.Errorf("parameter %q: min %g > max %g", param.Name, param.Min, param.Max)
		}
		if param.Value < param.Min || param.Value > param.Max {
			return fmt.Errorf("parameter %q: value %g outside [%g, %g]", param.Name, param.Value, param.Min, param.Max)
		}
	}
	for _, f := range p.CustomFiles {
		if _, err := ParseLanguage(string(f.Language)); err != nil {
			return fmt.Errorf("custom file %q: %w", f.Name, err)
		}
	}
	return nil
}

// NeedsBridge reports whether any custom file requires an interpreter bridge.
func (p *Problem) NeedsBridge() bool {
	for _, f := range p.CustomFiles {
		if f.Language.NeedsBridge() {
			return true
		}
	}
	return false
}
