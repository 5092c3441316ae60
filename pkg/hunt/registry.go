package hunt

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Symbol is one exported declaration tracked across both passes.
type Symbol struct {
	Name     string   `json:"name" toon:"name"`
	File     string   `json:"file" toon:"file"`
	Line     uint32   `json:"line" toon:"line"`
	Category Category `json:"type" toon:"type"`
	Used     bool     `json:"used" toon:"used"`

	// refs holds indices of usage-pass files that referenced the symbol.
	refs *roaring.Bitmap
}

// References returns how many distinct files referenced the symbol.
func (s *Symbol) References() uint64 {
	if s.refs == nil {
		return 0
	}
	return s.refs.GetCardinality()
}

// Collision records a name exported by more than one file. The later
// registration replaced the earlier one.
type Collision struct {
	Name     string `json:"name" toon:"name"`
	Previous string `json:"previous" toon:"previous"`
	Current  string `json:"current" toon:"current"`
}

// Registry maps exported names to symbols, preserving first-insertion order.
//
// Names are the only key. When a second file exports an already registered
// name, its symbol replaces the first one in place: the earlier file and used
// state are lost, the ordering slot is kept. Each replacement is recorded in
// Collisions.
type Registry struct {
	mu         sync.RWMutex
	categories CategorySet
	symbols    map[string]*Symbol
	order      []string
	collisions []Collision
}

// NewRegistry creates an empty registry accepting the given categories.
func NewRegistry(categories CategorySet) *Registry {
	return &Registry{
		categories: categories,
		symbols:    make(map[string]*Symbol),
	}
}

// Categories returns the category set the registry accepts.
func (r *Registry) Categories() CategorySet {
	return r.categories
}

// Register records an exported declaration from file. It returns false when
// the declaration has no name or its category is not selected.
func (r *Registry) Register(decl Declaration, file string) bool {
	if decl.Name == "" || !r.categories.Has(decl.Category) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sym := &Symbol{
		Name:     decl.Name,
		File:     file,
		Line:     decl.Line,
		Category: decl.Category,
	}

	if prev, ok := r.symbols[decl.Name]; ok {
		r.collisions = append(r.collisions, Collision{
			Name:     decl.Name,
			Previous: prev.File,
			Current:  file,
		})
	} else {
		r.order = append(r.order, decl.Name)
	}
	r.symbols[decl.Name] = sym
	return true
}

// Lookup returns the symbol registered under name.
func (r *Registry) Lookup(name string) (*Symbol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sym, ok := r.symbols[name]
	return sym, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// MarkUsed flags the symbol called name as used by file. References from the
// defining file never count. fileIndex identifies file within the usage pass.
// It returns true when the symbol exists and file is not its defining file.
func (r *Registry) MarkUsed(name, file string, fileIndex uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sym, ok := r.symbols[name]
	if !ok || sym.File == file {
		return false
	}
	sym.Used = true
	if sym.refs == nil {
		sym.refs = roaring.New()
	}
	sym.refs.Add(fileIndex)
	return true
}

// Len returns the number of registered symbols.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Symbols returns the registered symbols in insertion order.
func (r *Registry) Symbols() []*Symbol {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Symbol, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.symbols[name])
	}
	return out
}

// Collisions returns every name overwrite seen during registration.
func (r *Registry) Collisions() []Collision {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Collision, len(r.collisions))
	copy(out, r.collisions)
	return out
}
