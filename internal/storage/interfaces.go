// Package storage provides the store interfaces consumed by the resolution
// core, together with the shared error taxonomy and the indexed/fallback
// query-shape negotiation helper.
//
// The interfaces are small and read-only: the core never writes to either
// feed. Backends exist for PostgreSQL (live data) and SQLite (snapshot files
// and tests); both must honor the deterministic orderings documented on each
// method, because reproducible pagination depends on them.
package storage

import (
	"context"

	"github.com/opencargos/tenura/pkg/types"
)

// RegistryStore queries the corporate-registry role/ownership feed.
type RegistryStore interface {
	// IdentityByName looks up an identity by exact, case-sensitive canonical
	// name. This is the cheapest path and covers the common case of a caller
	// passing back a name the system itself produced.
	// Returns ErrNotFound when no identity matches.
	IdentityByName(ctx context.Context, name string) (*types.IdentitySummary, error)

	// IdentityByNormalizedName looks up the best identity whose normalized
	// name equals the given normalized text. When several identities share a
	// normalized spelling, the winner is ranked by
	// (num_companies_with_registry_id DESC, total_observations DESC).
	// Returns ErrNotFound when no identity matches.
	IdentityByNormalizedName(ctx context.Context, normalized string) (*types.IdentitySummary, error)

	// SearchIdentities runs an AND-of-token prefix query against the
	// normalized-name index and returns one result page plus the total match
	// count. Implementations must try the full-text index form first and
	// transparently retry with a plain substring form when the index is
	// schema-incompatible (see Negotiate); any other failure is returned
	// as-is. Rows are ordered by
	// (num_companies_with_registry_id DESC, total_observations DESC, canonical_name ASC).
	SearchIdentities(ctx context.Context, tokens []string, limit, offset int) ([]types.IdentitySummary, int, error)

	// RolesByIdentity returns every role observation for the canonical
	// identity, restricted to the given role kinds. Rows are ordered with
	// open spans first, then by start date descending, then by company name
	// ascending, so the first-seen row per company group is deterministic.
	RolesByIdentity(ctx context.Context, canonicalName string, roleKinds []string) ([]types.RoleObservation, error)

	// Close releases any resources held by the store.
	Close() error
}

// AppointmentStore queries the elected-office appointment feed through a
// structured filter interface: equality and prefix-style text filters, a
// deterministic ordering, and a row cap.
type AppointmentStore interface {
	// AppointmentsByOrgName returns appointment rows whose normalized
	// organization name equals the given normalized text, capped at limit.
	// Rows are ordered by (org_id ASC, start date DESC NULLS LAST, holder ASC).
	AppointmentsByOrgName(ctx context.Context, normalized string, limit int) ([]types.AppointmentObservation, error)

	// AppointmentsByOrgTokens is the degraded form used when the exact filter
	// returns zero rows: every token must appear as a substring of the
	// normalized organization name. Ordering and cap as above.
	AppointmentsByOrgTokens(ctx context.Context, tokens []string, limit int) ([]types.AppointmentObservation, error)

	// Close releases any resources held by the store.
	Close() error
}
