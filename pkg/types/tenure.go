package types

import "time"

// SeatSentinelDisambiguator marks a seat that could not be told apart by
// ordinal, sub-area, or holder name. All such rows collapse into one seat.
const SeatSentinelDisambiguator = "-"

// End-inference markers for TenurePeriod.
const (
	// EndBySuccessor means a later observation for the same seat showed a
	// different incumbent; the end date is the day before the successor
	// started.
	EndBySuccessor = "successor"

	// EndOpen means no later, different incumbent was observed; the holder is
	// presumed still in office.
	EndOpen = "open"

	// EndUnknown means the seat has no dated observations at all, so nothing
	// can be inferred.
	EndUnknown = "unknown"
)

// OfficeSeat identifies one distinguishable office position within an
// organization. Two rows with the same org and title but different ordinals
// (or sub-areas, or incumbents) are different seats; collapsing them would
// silently drop a real office.
type OfficeSeat struct {
	// OrgID is the organization the seat belongs to.
	OrgID string `json:"org_id"`

	// Title is the office title.
	Title string `json:"title"`

	// Disambiguator separates seats that share org and title. It falls back
	// through ordinal → sub-area → tokenized holder name → a fixed sentinel,
	// in that priority.
	Disambiguator string `json:"disambiguator"`
}

// SeatHolder pairs a seat with the single most recent observation for it:
// the current holder. Selection rule: a dated observation beats an undated
// one, and a later start date beats an earlier one.
type SeatHolder struct {
	// Seat is the seat key.
	Seat OfficeSeat `json:"seat"`

	// Observation is the winning observation for the seat.
	Observation AppointmentObservation `json:"observation"`
}

// TenurePeriod is a reconstructed span of one person holding one seat.
// Periods are computed fresh per query and never persisted by the core.
type TenurePeriod struct {
	// HolderName is the holder of the period.
	HolderName string `json:"holder_name"`

	// Start is the observed start date, or nil for undated observations.
	Start *time.Time `json:"start,omitempty"`

	// End is the inferred end date, set only when EndInferredBy is
	// EndBySuccessor.
	End *time.Time `json:"end,omitempty"`

	// EndInferredBy is one of EndBySuccessor, EndOpen, EndUnknown.
	EndInferredBy string `json:"end_inferred_by"`
}

// SeatTenure is the full reconstructed history of one seat, ordered from the
// earliest observation to the latest.
type SeatTenure struct {
	// Seat is the seat key.
	Seat OfficeSeat `json:"seat"`

	// Periods are the reconstructed tenure periods, oldest first.
	Periods []TenurePeriod `json:"periods"`
}
