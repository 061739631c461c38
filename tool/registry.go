package tool

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for registry lookups.
var (
	// ErrNotFound indicates the requested tool is not registered.
	ErrNotFound = errors.New("tool not found")

	// ErrAlreadyRegistered indicates a tool with the same name exists.
	ErrAlreadyRegistered = errors.New("tool already registered")
)

// Descriptor is a snapshot of a tool's metadata without its execution
// logic, for discovery and listing.
type Descriptor struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	OutputFields []string `json:"output_fields,omitempty"`
	Fallbacks    []string `json:"fallbacks,omitempty"`
}

// Describe extracts a tool's Descriptor.
func Describe(t *Tool) Descriptor {
	return Descriptor{
		Name:         t.Name(),
		Type:         t.Type(),
		Version:      t.Version(),
		Description:  t.Description(),
		OutputFields: t.OutputFields(),
		Fallbacks:    t.Fallbacks().Names(),
	}
}

// Registry is a thread-safe, in-process tool registry. Tools register once
// at startup; their configuration is immutable thereafter.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(t *Tool) error {
	if t == nil {
		return errors.New("tool cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// List returns descriptors for every registered tool, sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		descriptors = append(descriptors, Describe(t))
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors
}

// Deregister removes a tool by name.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.tools, name)
	return nil
}
