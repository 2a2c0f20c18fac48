package search

import (
	"github.com/parkside-crm/searchd/pkg/rel"
)

// Table names of the searchable entities and their joined relations.
const (
	TableListings          = "listings"
	TableListingLocations  = "listing_locations"
	TableListingOwners     = "listing_owners"
	TableContacts          = "contacts"
	TablePeople            = "people"
	TableUsers             = "users"
	TableUserProfiles      = "user_profiles"
	TablePurchaseInquiries = "purchase_inquiries"
	TableCategories        = "categories"
	TableCharacteristics   = "characteristics"
)

func col(table, name string) rel.Column {
	return rel.Column{Table: table, Name: name}
}

// entityTable maps entity keys to their base tables. tenantColumn names the
// column the base collection is scoped by when a tenant is present; empty
// means the entity is not tenant-owned at the base-table level.
type entityTable struct {
	table        string
	tenantColumn string
}

var entityTables = map[EntityKey]entityTable{
	EntityListings:          {table: TableListings, tenantColumn: "agency_id"},
	EntityAgencyUsers:       {table: TableUsers},
	EntityPurchaseInquiries: {table: TablePurchaseInquiries, tenantColumn: "agency_id"},
	EntityCategories:        {table: TableCategories},
	EntityCharacteristics:   {table: TableCharacteristics},
	EntityListingOwners:     {table: TableListingOwners},
}

// BaseCollection builds the starting collection for an entity, scoped to the
// tenant where the base table carries an ownership column. Entities reached
// through association tables (agency users, listing owners) are scoped by
// the host application before searching; this helper only covers the direct
// ownership case.
func BaseCollection(entity EntityKey, sctx Context) (*rel.Collection, error) {
	et, ok := entityTables[entity]
	if !ok {
		return nil, &UnknownEntityError{Entity: entity}
	}

	c := rel.New(et.table)
	if et.tenantColumn != "" && sctx.HasTenant() {
		c = c.Where(rel.Eq{Expr: col(et.table, et.tenantColumn), Value: sctx.TenantID()})
	}
	return c, nil
}
