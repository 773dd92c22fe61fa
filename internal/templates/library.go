package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Library maps template names to templates.
type Library struct {
	templates map[string]*Template
}

func NewLibrary() *Library {
	return &Library{templates: make(map[string]*Template)}
}

// Add stores t under its name, replacing any template with the same name.
func (l *Library) Add(t *Template) error {
	if t.Name() == "" {
		return ErrUnnamedTemplate
	}
	l.templates[t.Name()] = t
	return nil
}

func (l *Library) Get(name string) (*Template, error) {
	t, ok := l.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return t, nil
}

func (l *Library) Has(name string) bool {
	_, ok := l.templates[name]
	return ok
}

func (l *Library) Remove(name string) bool {
	if _, ok := l.templates[name]; !ok {
		return false
	}
	delete(l.templates, name)
	return true
}

// Names returns the template names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Library) Len() int {
	return len(l.templates)
}

// LoadFromPath loads one template file, or every template file below a
// directory.
func LoadFromPath(path string) (*Library, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.IsDir() {
		return LoadFS(os.DirFS(path), ".")
	}

	t, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	library := NewLibrary()
	if err := library.Add(t); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return library, nil
}

// LoadFS walks root inside fsys in lexical order and adds every file with a
// supported extension. Two files defining the same name is an error.
func LoadFS(fsys fs.FS, root string) (*Library, error) {
	library := NewLibrary()
	origins := make(map[string]string)

	err := fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := FormatFromPath(name); !ok {
			return nil
		}

		t, err := ParseFS(fsys, name)
		if err != nil {
			return err
		}

		if first, ok := origins[t.Name()]; ok {
			return fmt.Errorf("%w: %q defined in %s and %s", ErrDuplicateTemplate, t.Name(), first, name)
		}

		if err := library.Add(t); err != nil {
			return fmt.Errorf("%s: %w", filepath.FromSlash(name), err)
		}
		origins[t.Name()] = name

		return nil
	})
	if err != nil {
		return nil, err
	}

	return library, nil
}
