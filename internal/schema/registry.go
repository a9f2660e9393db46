package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed modules.yaml
var defaultModules []byte

// Registry is the ordered set of modules the console and API serve.
type Registry struct {
	modules []*Module
	byName  map[string]*Module
}

type file struct {
	Modules []*Module `yaml:"modules"`
}

// Default returns the built-in module definitions.
func Default() (*Registry, error) {
	return Parse(defaultModules)
}

// Load reads module definitions from a YAML file. An empty path yields the built-in set.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading modules file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and checks a YAML module document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding modules: %w", err)
	}

	return New(f.Modules...)
}

// New builds a registry from module definitions, filling defaults and rejecting invalid ones.
func New(modules ...*Module) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Module, len(modules))}

	for _, m := range modules {
		if err := m.check(); err != nil {
			return nil, err
		}

		if _, dup := r.byName[m.Name]; dup {
			return nil, fmt.Errorf("duplicate module %q", m.Name)
		}

		r.byName[m.Name] = m
		r.modules = append(r.modules, m)
	}

	return r, nil
}

func (r *Registry) Get(name string) (*Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

func (r *Registry) Modules() []*Module {
	return r.modules
}

// Group is a sidebar section: a title and the modules filed under it.
type Group struct {
	Title   string
	Modules []*Module
}

// Groups returns modules bucketed by their Group, in first-seen order.
func (r *Registry) Groups() []Group {
	var groups []Group

	index := make(map[string]int)

	for _, m := range r.modules {
		title := m.Group
		if title == "" {
			title = "General"
		}

		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, Group{Title: title})
		}

		groups[i].Modules = append(groups[i].Modules, m)
	}

	return groups
}
