// Package types defines the shared domain types for the Tenura system.
//
// The two upstream feeds — the corporate-registry role/ownership feed and the
// elected-office appointment feed — are represented as immutable observation
// records. Observations are produced by the ingest pipeline and are never
// mutated by the resolution core.
package types

import "time"

// Role kind constants for the corporate-registry feed. Only observations with
// one of these kinds participate in profile resolution; everything else
// (auditors, registered addresses, capital announcements) is ignored.
const (
	RoleGovernance        = "governance"
	RoleAttorneyInFact    = "attorney-in-fact"
	RoleSoleAdministrator = "sole-administrator"
	RolePartner           = "partner"
	RoleSoleShareholder   = "sole-shareholder"
	RoleLiquidator        = "liquidator"
	RoleBoardMember       = "board-member"
)

// AllowedRoleKinds is the fixed allow-list of role kinds considered when
// assembling a corporate profile.
var AllowedRoleKinds = []string{
	RoleGovernance,
	RoleAttorneyInFact,
	RoleSoleAdministrator,
	RolePartner,
	RoleSoleShareholder,
	RoleLiquidator,
	RoleBoardMember,
}

// RoleObservation is a single raw record from the corporate-registry feed:
// one person holding one role at one company for a span of time.
type RoleObservation struct {
	// PersonName is the canonical person name the observation resolved to.
	PersonName string `json:"person_name"`

	// RoleKind is one of the Role* constants.
	RoleKind string `json:"role_kind"`

	// CompanyName is the company name exactly as published by the registry.
	CompanyName string `json:"company_name"`

	// CompanyNameMatched is the cleaned-up company name produced by the
	// ingest matcher, or empty when no match was attempted.
	CompanyNameMatched string `json:"company_name_matched,omitempty"`

	// RegistryID is the stable external company identifier, or empty when
	// the registry row carried none.
	RegistryID string `json:"registry_id,omitempty"`

	// Start is the first date the role was observed.
	Start time.Time `json:"start"`

	// End is the date the role ended, or nil while the span is still open.
	End *time.Time `json:"end,omitempty"`

	// SourceRef points at the upstream gazette entry, when known.
	SourceRef string `json:"source_ref,omitempty"`
}

// Open reports whether the observed span has no recorded end date.
func (o RoleObservation) Open() bool { return o.End == nil }

// AppointmentObservation is a single raw record from the elected-office
// appointment feed: one person observed holding one office at a point in time.
// Appointment rows carry no end date; tenure ends are inferred from successor
// observations in the same seat.
type AppointmentObservation struct {
	// OrgID is the stable identifier of the organization (council, ministry,
	// public body) the office belongs to.
	OrgID string `json:"org_id"`

	// OrgName is the organization name as published. The same OrgID may
	// appear under several raw spellings.
	OrgName string `json:"org_name"`

	// Title is the office title text (e.g. "Vicepresidencia", "Consejero").
	Title string `json:"title"`

	// Ordinal distinguishes numbered seats that share a title
	// ("Vicepresidencia Primera" vs "Segunda"). Zero means no ordinal.
	Ordinal int `json:"ordinal,omitempty"`

	// SubArea is the portfolio or territorial area attached to the office,
	// when the feed provides one.
	SubArea string `json:"sub_area,omitempty"`

	// HolderName is the office holder's name as published.
	HolderName string `json:"holder_name"`

	// Start is the observed appointment date. Some historical rows carry no
	// date; those lose to dated rows when selecting the current holder.
	Start *time.Time `json:"start,omitempty"`

	// SourceRef points at the upstream publication, when known.
	SourceRef string `json:"source_ref,omitempty"`
}

// IdentitySummary is one row of the precomputed identity index: a canonical
// person name together with the aggregate counts used for search ranking.
type IdentitySummary struct {
	// CanonicalName is the authoritative display key for the person.
	CanonicalName string `json:"canonical_name"`

	// NumCompanies is the number of distinct companies linked to the person.
	NumCompanies int `json:"num_companies"`

	// NumCompaniesWithRegistryID counts linked companies that carry a stable
	// registry identifier.
	NumCompaniesWithRegistryID int `json:"num_companies_with_registry_id"`

	// TotalObservations is the total number of role observations recorded
	// for the person across all companies.
	TotalObservations int `json:"total_observations"`
}
