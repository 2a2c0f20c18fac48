package search

// Context carries the requesting tenant and actor through a search call.
// It is an immutable value created once per request; definitions use it to
// build tenant-guard predicates and the service uses it for audit logging.
// It owns nothing and decides nothing: authorization happened before the
// collection reached this package.
type Context struct {
	tenantID string
	actorID  string
}

// NewContext creates a search context. Either identifier may be empty when
// the request has no tenant or actor (system jobs, unauthenticated flows).
func NewContext(tenantID, actorID string) Context {
	return Context{tenantID: tenantID, actorID: actorID}
}

// TenantID returns the requesting tenant identifier, empty when absent.
func (c Context) TenantID() string {
	return c.tenantID
}

// HasTenant reports whether a tenant identifier is present. Tenant-guarded
// predicates are only added when this is true.
func (c Context) HasTenant() bool {
	return c.tenantID != ""
}

// ActorID returns the acting user identifier, empty when absent.
func (c Context) ActorID() string {
	return c.actorID
}
