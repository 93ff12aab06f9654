package verb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vintner/vintner/pkg/telemetry"
	"github.com/vintner/vintner/pkg/werrors"
)

// Registry is an immutable, category-indexed collection of descriptors.
type Registry struct {
	verbs      map[string]*Verb
	byCategory map[Category][]string
	log        *telemetry.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		verbs:      make(map[string]*Verb),
		byCategory: make(map[Category][]string),
		log:        telemetry.Nop(),
	}
}

// LoadDir scans the direct subdirectories of dir. Each subdirectory whose
// name parses as a known category is scanned for *.json descriptors; the
// filename stem becomes the canonical verb name, overriding any name field
// in the document. Any unreadable directory or malformed document fails the
// whole load.
func LoadDir(dir string, log *telemetry.Logger) (*Registry, error) {
	if log == nil {
		log = telemetry.Nop()
	}
	r := NewRegistry()
	r.log = log.NewComponentLogger("registry")
	check := newValidator()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, werrors.IO(err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		category, err := ParseCategory(entry.Name())
		if err != nil {
			// Unknown directories are skipped, not fatal: the tree may
			// hold unrelated files next to category subtrees.
			r.log.Debugf("skipping non-category directory %s", entry.Name())
			continue
		}

		categoryDir := filepath.Join(dir, entry.Name())
		files, err := os.ReadDir(categoryDir)
		if err != nil {
			return nil, werrors.IO(err)
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			path := filepath.Join(categoryDir, file.Name())
			v, err := loadDescriptor(path, category, check)
			if err != nil {
				return nil, err
			}
			if err := r.Register(v.Name, v, category); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

// loadDescriptor reads and validates one descriptor document. The filename
// stem and the directory category are canonical: they overwrite whatever
// the document carries.
func loadDescriptor(path string, category Category, check *validator.Validate) (*Verb, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werrors.IO(err)
	}

	var v Verb
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, werrors.Verb("malformed descriptor %s: %v", filepath.Base(path), err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	v.Name = stem
	v.Category = category

	if err := v.validate(check); err != nil {
		return nil, werrors.Verb("invalid descriptor %s: %v", filepath.Base(path), err)
	}
	return &v, nil
}

// Register adds a descriptor under the given name and category. Duplicate
// names across the tree fail the load.
func (r *Registry) Register(name string, v *Verb, category Category) error {
	if _, exists := r.verbs[name]; exists {
		return werrors.Verb("verb %q already registered", name)
	}

	v.Name = name
	v.Category = category

	if v.wantsURL() && !v.hasURL() {
		r.log.Warnf("verb %s is %s/%s but has no downloadable file", name, category, v.EffectiveMedia())
	}

	r.verbs[name] = v
	r.byCategory[category] = append(r.byCategory[category], name)
	return nil
}

// Get returns the descriptor for name, or nil when absent.
func (r *Registry) Get(name string) *Verb {
	return r.verbs[name]
}

// Exists reports whether name is registered.
func (r *Registry) Exists(name string) bool {
	_, ok := r.verbs[name]
	return ok
}

// List returns all descriptors in unspecified order.
func (r *Registry) List() []*Verb {
	out := make([]*Verb, 0, len(r.verbs))
	for _, v := range r.verbs {
		out = append(out, v)
	}
	return out
}

// ListByCategory returns the descriptors of one category in insertion
// order.
func (r *Registry) ListByCategory(category Category) []*Verb {
	names := r.byCategory[category]
	out := make([]*Verb, 0, len(names))
	for _, name := range names {
		if v, ok := r.verbs[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of registered verbs.
func (r *Registry) Len() int {
	return len(r.verbs)
}

// String summarizes the registry for logs.
func (r *Registry) String() string {
	return fmt.Sprintf("registry(%d verbs)", len(r.verbs))
}
