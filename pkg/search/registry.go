package search

import "sort"

// Registry is the fixed entity-key to Definition mapping, assembled once at
// startup and read-only afterwards.
type Registry struct {
	definitions map[EntityKey]Definition
}

// NewRegistry creates a registry populated with every built-in definition.
func NewRegistry() *Registry {
	r := &Registry{definitions: make(map[EntityKey]Definition)}

	for _, d := range []Definition{
		newListingsDefinition(),
		newAgencyUsersDefinition(),
		newPurchaseInquiriesDefinition(),
		newCategoriesDefinition(),
		newCharacteristicsDefinition(),
		newListingOwnersDefinition(),
	} {
		r.Register(d)
	}

	return r
}

// Register adds a definition under its entity key, replacing any existing
// one. This is a startup-time extension seam for host applications; the
// registry must not be mutated once searches are being served.
func (r *Registry) Register(d Definition) {
	r.definitions[d.Entity()] = d
}

// DefinitionFor resolves the definition for an entity key, failing with
// *UnknownEntityError when the key was never registered.
func (r *Registry) DefinitionFor(entity EntityKey) (Definition, error) {
	d, ok := r.definitions[entity]
	if !ok {
		return nil, &UnknownEntityError{Entity: entity}
	}
	return d, nil
}

// Entities returns the registered entity keys in stable order.
func (r *Registry) Entities() []EntityKey {
	keys := make([]EntityKey, 0, len(r.definitions))
	for key := range r.definitions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
