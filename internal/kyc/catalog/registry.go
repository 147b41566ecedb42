package catalog

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"talentkyc/internal/kyc/models"
	dErrors "talentkyc/pkg/domain-errors"
)

// Registry keeps every registered catalog version and which one is active.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	versions map[string]Catalog
	active   string
}

// NewRegistry returns a registry with the builtin catalog registered and active.
func NewRegistry() *Registry {
	builtin := Builtin()
	return &Registry{
		versions: map[string]Catalog{builtin.Version: builtin},
		active:   builtin.Version,
	}
}

// Register validates and stores a new catalog version. Versions cannot be
// replaced once registered.
func (r *Registry) Register(c Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.versions[c.Version]; exists {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("catalog version %s already registered", c.Version))
	}
	r.versions[c.Version] = c.clone()
	return nil
}

// Activate makes a registered version the one used by Resolve.
func (r *Registry) Activate(version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[version]; !ok {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("catalog version %s not registered", version))
	}
	r.active = version
	return nil
}

func (r *Registry) ActiveVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Versions lists registered versions, sorted.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.versions))
	for v := range r.versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the requirement groups for purpose in the active version.
func (r *Registry) Resolve(purpose models.Purpose) ([]models.RequirementGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(r.active, purpose)
}

// ResolveVersion returns the requirement groups for purpose in a given version.
func (r *Registry) ResolveVersion(version string, purpose models.Purpose) ([]models.RequirementGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(version, purpose)
}

func (r *Registry) resolveLocked(version string, purpose models.Purpose) ([]models.RequirementGroup, error) {
	c, ok := r.versions[version]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("catalog version %s not registered", version))
	}
	groups, ok := c.Purposes[purpose]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown purpose %s", purpose))
	}
	return cloneGroups(groups), nil
}

// PurposesFor lists the active purposes whose groups reference t.
func (r *Registry) PurposesFor(t models.DocumentType) []models.Purpose {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.versions[r.active]
	var out []models.Purpose
	for p, groups := range c.Purposes {
		for _, g := range groups {
			if g.Covers(t) {
				out = append(out, p)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}

// KnowsType reports whether the active version references t at all.
func (r *Registry) KnowsType(t models.DocumentType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.versions[r.active].Types(), t)
}

// Validity returns the default validity window for t in the active version.
func (r *Registry) Validity(t models.DocumentType) (time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.versions[r.active].Validity[t]
	return d, ok
}
