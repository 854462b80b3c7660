// Package templates holds the text skeletons the emitters fill in.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed defaults/*.template
var defaults embed.FS

// Name identifies one template.
type Name string

const (
	TypeScript Name = "typescript"
	Schema     Name = "schema"
	Entry      Name = "entry"
	Exporter   Name = "exporter"
)

// Names lists every template a Set carries.
var Names = []Name{TypeScript, Schema, Entry, Exporter}

// Placeholders replaced by Fill.
const (
	Children = "{{ children }}"
	Action   = "{{ action }}"
)

// Set is the loaded template text, read once per run.
type Set struct {
	TypeScript string
	Schema     string
	Entry      string
	Exporter   string

	// Overridden lists the templates read from the override directory.
	Overridden []Name
}

// Get returns the text of the named template.
func (s *Set) Get(n Name) string {
	switch n {
	case TypeScript:
		return s.TypeScript
	case Schema:
		return s.Schema
	case Entry:
		return s.Entry
	case Exporter:
		return s.Exporter
	}
	return ""
}

func (s *Set) set(n Name, text string) {
	switch n {
	case TypeScript:
		s.TypeScript = text
	case Schema:
		s.Schema = text
	case Entry:
		s.Entry = text
	case Exporter:
		s.Exporter = text
	}
}

// Default returns the built-in templates.
func Default() *Set {
	s, err := Load(nil, "")
	if err != nil {
		panic(err)
	}
	return s
}

// Load reads <dir>/<name>.template from fsys for every template, falling
// back to the built-in text when the file does not exist. A nil fsys or
// empty dir loads only the built-ins.
func Load(fsys fs.FS, dir string) (*Set, error) {
	s := &Set{}
	for _, n := range Names {
		file := string(n) + ".template"
		if fsys != nil && dir != "" {
			data, err := fs.ReadFile(fsys, path.Join(dir, file))
			switch {
			case err == nil:
				s.set(n, string(data))
				s.Overridden = append(s.Overridden, n)
				continue
			case !errors.Is(err, fs.ErrNotExist):
				return nil, fmt.Errorf("read template %s: %w", file, err)
			}
		}
		data, err := defaults.ReadFile("defaults/" + file)
		if err != nil {
			return nil, fmt.Errorf("read built-in template %s: %w", file, err)
		}
		s.set(n, string(data))
	}
	return s, nil
}

// Fill replaces the first occurrence of placeholder in text with value.
func Fill(text, placeholder, value string) string {
	return strings.Replace(text, placeholder, value, 1)
}
