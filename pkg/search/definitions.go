package search

import (
	"github.com/parkside-crm/searchd/pkg/rel"
)

// listingsDefinition searches listings by title, owner full name and
// concatenated address. A listing with several owners would match once per
// owner through the join, hence distinct.
type listingsDefinition struct {
	baseDefinition
}

func newListingsDefinition() listingsDefinition {
	return listingsDefinition{baseDefinition{entity: EntityListings, distinct: true}}
}

func (listingsDefinition) ApplyJoins(c *rel.Collection, _ Context) *rel.Collection {
	return c.
		LeftJoin(rel.Join{
			Table: TableListingLocations,
			On:    rel.EqCol(col(TableListingLocations, "listing_id"), col(TableListings, "id")),
		}).
		LeftJoin(rel.Join{
			Table: TableListingOwners,
			On:    rel.EqCol(col(TableListingOwners, "listing_id"), col(TableListings, "id")),
		}).
		LeftJoin(rel.Join{
			Table: TableContacts,
			On:    rel.EqCol(col(TableContacts, "id"), col(TableListingOwners, "contact_id")),
		})
}

func (listingsDefinition) Predicates(query string, _ Context, builder PredicateBuilder) []rel.Expr {
	address := rel.ConcatWS(
		col(TableListingLocations, "country"),
		col(TableListingLocations, "region"),
		col(TableListingLocations, "city"),
		col(TableListingLocations, "street"),
		col(TableListingLocations, "house_number"),
	)

	return []rel.Expr{
		builder.BuildTextPredicate(col(TableListings, "title"), query),
		builder.BuildTextPredicate(fullName(TableContacts), query),
		builder.BuildTextPredicate(address, query),
	}
}

// agencyUsersDefinition searches agency employees by account email,
// normalized phone and profile name. Contact-level fields are guarded by
// the requesting tenant: a user's person may have contact rows in several
// agencies, and matching another agency's contact name or email would leak
// cross-tenant data. Account-level fields are tenant-independent.
type agencyUsersDefinition struct {
	baseDefinition
}

func newAgencyUsersDefinition() agencyUsersDefinition {
	return agencyUsersDefinition{baseDefinition{entity: EntityAgencyUsers, distinct: true}}
}

func (agencyUsersDefinition) ApplyJoins(c *rel.Collection, _ Context) *rel.Collection {
	return c.
		LeftJoin(rel.Join{
			Table: TableUserProfiles,
			On:    rel.EqCol(col(TableUserProfiles, "user_id"), col(TableUsers, "id")),
		}).
		LeftJoin(rel.Join{
			Table: TablePeople,
			On:    rel.EqCol(col(TablePeople, "id"), col(TableUsers, "person_id")),
		}).
		LeftJoin(rel.Join{
			Table: TableContacts,
			On:    rel.EqCol(col(TableContacts, "person_id"), col(TablePeople, "id")),
		})
}

func (agencyUsersDefinition) Predicates(query string, sctx Context, builder PredicateBuilder) []rel.Expr {
	predicates := []rel.Expr{
		builder.BuildTextPredicate(col(TableUsers, "email"), query),
		phonePredicate(builder, col(TablePeople, "normalized_phone"), query),
		builder.BuildTextPredicate(fullName(TableUserProfiles), query),
	}

	if sctx.HasTenant() {
		guard := rel.Eq{Expr: col(TableContacts, "agency_id"), Value: sctx.TenantID()}
		predicates = append(predicates,
			rel.And{Exprs: []rel.Expr{guard, builder.BuildTextPredicate(fullName(TableContacts), query)}},
			rel.And{Exprs: []rel.Expr{guard, builder.BuildTextPredicate(col(TableContacts, "email"), query)}},
		)
	}

	return predicates
}

// purchaseInquiriesDefinition searches purchase inquiries by contact full
// name and phone. Each inquiry has exactly one contact, so the joins cannot
// duplicate rows and no distinct is needed.
type purchaseInquiriesDefinition struct {
	baseDefinition
}

func newPurchaseInquiriesDefinition() purchaseInquiriesDefinition {
	return purchaseInquiriesDefinition{baseDefinition{entity: EntityPurchaseInquiries}}
}

func (purchaseInquiriesDefinition) ApplyJoins(c *rel.Collection, _ Context) *rel.Collection {
	return c.
		LeftJoin(rel.Join{
			Table: TableContacts,
			On:    rel.EqCol(col(TableContacts, "id"), col(TablePurchaseInquiries, "contact_id")),
		}).
		LeftJoin(rel.Join{
			Table: TablePeople,
			On:    rel.EqCol(col(TablePeople, "id"), col(TableContacts, "person_id")),
		})
}

func (purchaseInquiriesDefinition) Predicates(query string, _ Context, builder PredicateBuilder) []rel.Expr {
	return []rel.Expr{
		builder.BuildTextPredicate(fullName(TableContacts), query),
		phonePredicate(builder, col(TablePeople, "normalized_phone"), query),
	}
}

// categoriesDefinition searches categories by title and identifier rendered
// as text, so admins can paste a UUID straight into the search box.
type categoriesDefinition struct {
	baseDefinition
}

func newCategoriesDefinition() categoriesDefinition {
	return categoriesDefinition{baseDefinition{entity: EntityCategories}}
}

func (categoriesDefinition) Predicates(query string, _ Context, builder PredicateBuilder) []rel.Expr {
	return []rel.Expr{
		builder.BuildTextPredicate(col(TableCategories, "title"), query),
		builder.BuildTextPredicate(rel.Cast{Expr: col(TableCategories, "id"), Type: "text"}, query),
	}
}

// characteristicsDefinition mirrors categories for listing characteristics.
type characteristicsDefinition struct {
	baseDefinition
}

func newCharacteristicsDefinition() characteristicsDefinition {
	return characteristicsDefinition{baseDefinition{entity: EntityCharacteristics}}
}

func (characteristicsDefinition) Predicates(query string, _ Context, builder PredicateBuilder) []rel.Expr {
	return []rel.Expr{
		builder.BuildTextPredicate(col(TableCharacteristics, "title"), query),
		builder.BuildTextPredicate(rel.Cast{Expr: col(TableCharacteristics, "id"), Type: "text"}, query),
	}
}

// listingOwnersDefinition searches listing owners by contact full name,
// contact email and normalized phone.
type listingOwnersDefinition struct {
	baseDefinition
}

func newListingOwnersDefinition() listingOwnersDefinition {
	return listingOwnersDefinition{baseDefinition{entity: EntityListingOwners}}
}

func (listingOwnersDefinition) ApplyJoins(c *rel.Collection, _ Context) *rel.Collection {
	return c.
		LeftJoin(rel.Join{
			Table: TableContacts,
			On:    rel.EqCol(col(TableContacts, "id"), col(TableListingOwners, "contact_id")),
		}).
		LeftJoin(rel.Join{
			Table: TablePeople,
			On:    rel.EqCol(col(TablePeople, "id"), col(TableContacts, "person_id")),
		})
}

func (listingOwnersDefinition) Predicates(query string, _ Context, builder PredicateBuilder) []rel.Expr {
	return []rel.Expr{
		builder.BuildTextPredicate(fullName(TableContacts), query),
		builder.BuildTextPredicate(col(TableContacts, "email"), query),
		phonePredicate(builder, col(TablePeople, "normalized_phone"), query),
	}
}
