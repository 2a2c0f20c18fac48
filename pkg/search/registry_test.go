package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryCoversAllEntities(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, []EntityKey{
		EntityAgencyUsers,
		EntityCategories,
		EntityCharacteristics,
		EntityListingOwners,
		EntityListings,
		EntityPurchaseInquiries,
	}, registry.Entities())
}

func TestDefinitionForResolvesByKey(t *testing.T) {
	registry := NewRegistry()

	def, err := registry.DefinitionFor(EntityListings)

	require.NoError(t, err)
	assert.Equal(t, EntityListings, def.Entity())
}

func TestDefinitionForUnknownEntity(t *testing.T) {
	registry := NewRegistry()

	def, err := registry.DefinitionFor(EntityKey("invoices"))

	assert.Nil(t, def)
	var unknown *UnknownEntityError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, EntityKey("invoices"), unknown.Entity)
}

func TestRegisterReplacesDefinition(t *testing.T) {
	registry := NewRegistry()
	custom := newCategoriesDefinition()
	custom.entity = EntityListings

	registry.Register(custom)

	def, err := registry.DefinitionFor(EntityListings)
	require.NoError(t, err)
	assert.False(t, def.RequiresDistinct())
}
