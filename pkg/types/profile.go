package types

import "time"

// CompanyAggregate groups every role observation a person has at one company.
// The grouping key is (CompanyName, CompanyNameMatched, RegistryID); two raw
// spellings of the same company that share a registry identifier still form
// two groups, but the profile-level registry-ID count deduplicates them.
type CompanyAggregate struct {
	// CompanyName is the raw company name of the group.
	CompanyName string `json:"company_name"`

	// CompanyNameMatched is the matched company name of the group, or empty.
	CompanyNameMatched string `json:"company_name_matched,omitempty"`

	// RegistryID is the registry identifier of the group, or empty.
	RegistryID string `json:"registry_id,omitempty"`

	// NumSpans is the number of role observations in the group.
	NumSpans int `json:"num_spans"`

	// ActiveSpans counts observations whose end date is still open.
	ActiveSpans int `json:"active_spans"`

	// FirstStart is the earliest start date across the group.
	FirstStart time.Time `json:"first_start"`

	// LastEnd is the latest non-open end date across the group, or nil when
	// any span in the group is still open (the relationship is ongoing).
	LastEnd *time.Time `json:"last_end,omitempty"`

	// Roles holds the observations of the group in store order: open spans
	// first, then by start date descending.
	Roles []RoleObservation `json:"roles"`
}

// Profile is the fully assembled corporate profile for one resolved identity.
type Profile struct {
	// CanonicalName is the resolved authoritative display key.
	CanonicalName string `json:"canonical_name"`

	// DisplayName is the human-oriented rendering of CanonicalName
	// (given name first, surname particles regrouped).
	DisplayName string `json:"display_name"`

	// Companies are the per-company aggregates, ranked by
	// (active spans desc, total spans desc).
	Companies []CompanyAggregate `json:"companies"`

	// NumCompanies is the number of company groups.
	NumCompanies int `json:"num_companies"`

	// NumCompaniesWithRegistryID counts distinct registry identifiers across
	// the groups. It is deduplicated by identifier, not by group, because the
	// same company can appear under two raw-name variants.
	NumCompaniesWithRegistryID int `json:"num_companies_with_registry_id"`

	// RankingPosition is the 1-based position of the identity in the
	// precomputed top-N ranking, or zero when the identity is unranked.
	RankingPosition int `json:"ranking_position,omitempty"`
}

// OrgMatch describes the outcome of matching a noisy organization-name query
// against the observed organization spellings.
type OrgMatch struct {
	// OrgID is the identifier of the winning organization, when matched.
	OrgID string `json:"org_id,omitempty"`

	// OrgName is the canonical (best-matching) spelling of the organization.
	OrgName string `json:"org_name,omitempty"`

	// Score is the token-overlap score of the winning spelling against the
	// query, in [0,1].
	Score float64 `json:"score"`

	// Matched reports whether the best score cleared the minimum acceptable
	// threshold. When false the caller should offer Alternates instead of
	// rendering holders.
	Matched bool `json:"matched"`

	// Alternates holds up to a few alternate organization-name suggestions
	// for user-facing disambiguation when no confident match exists.
	Alternates []string `json:"alternates,omitempty"`
}

// RankedIdentity is one row of the precomputed "top linked identities" CSV
// artifact.
type RankedIdentity struct {
	// Position is the 1-based rank.
	Position int `json:"position"`

	// Name is the canonical identity name.
	Name string `json:"name"`

	// NumCompanies is the linked-company count the ranking was built from.
	NumCompanies int `json:"num_companies"`
}
