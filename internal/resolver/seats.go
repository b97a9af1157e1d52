package resolver

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/opencargos/tenura/internal/namematch"
	"github.com/opencargos/tenura/pkg/types"
)

// orgGroup collects the appointment rows observed under one
// (org id, raw org name) spelling, plus the ranking signals for matching.
type orgGroup struct {
	id    string
	name  string
	rows  []types.AppointmentObservation
	score float64
}

// ResolveCurrentOfficeHolders matches a noisy organization-name query to the
// best-scoring observed organization spelling and returns one current holder
// per distinguishable seat, paginated after full in-memory ranking.
//
// When the best candidate scores below the minimum acceptable threshold the
// match info carries up to three alternate spellings for user-facing
// disambiguation and the row set is empty — never a hard failure.
func (s *Service) ResolveCurrentOfficeHolders(ctx context.Context, orgQuery string, page, pageSize int) (types.OrgMatch, []types.SeatHolder, int) {
	query := strings.TrimSpace(orgQuery)
	if len([]rune(query)) < s.matching.MinOrgQueryLength {
		return types.OrgMatch{}, nil, 0
	}
	if s.appointments == nil {
		s.appointmentsMissingOnce.Do(func() {
			log.Printf("resolver: appointment store not configured, serving empty office holders")
		})
		return types.OrgMatch{}, nil, 0
	}

	pageSize = s.clampPageSize(pageSize)
	if page < 1 {
		page = 1
	}

	key := fmt.Sprintf("holders:%s:%d:%d", namematch.Normalize(query), page, pageSize)
	if cached, ok := s.holdersCache.Get(key); ok {
		return cached.Match, cached.Rows, cached.Total
	}

	var match types.OrgMatch
	var holders []types.SeatHolder
	err := s.guard.Do(func() error {
		var err error
		match, holders, err = s.matchOrganization(ctx, query)
		return err
	})
	if err != nil {
		s.degrade("office holders", err)
		return types.OrgMatch{}, nil, 0
	}

	total := len(holders)
	rows := paginate(holders, page, pageSize)

	if ctx.Err() == nil {
		s.holdersCache.Set(key, holdersPage{Match: match, Rows: rows, Total: total}, s.cache.SearchTTL)
	}
	return match, rows, total
}

// matchOrganization fetches candidate rows (exact normalized-name filter
// first, token-AND fallback when it returns nothing), scores the candidate
// spellings against the query, and reduces the winning group to its ranked
// current holders.
func (s *Service) matchOrganization(ctx context.Context, query string) (types.OrgMatch, []types.SeatHolder, error) {
	rows, err := s.fetchAppointments(ctx, query)
	if err != nil {
		return types.OrgMatch{}, nil, err
	}
	if len(rows) == 0 {
		return types.OrgMatch{}, nil, nil
	}

	groups := rankOrgGroups(rows, query)
	best := groups[0]

	if best.score < s.matching.MinMatchScore {
		match := types.OrgMatch{Score: best.score, Matched: false}
		for _, g := range groups {
			if len(match.Alternates) == maxAlternateSuggestions {
				break
			}
			match.Alternates = append(match.Alternates, g.name)
		}
		return match, nil, nil
	}

	holders := currentHoldersPerSeat(best.rows)
	orderHolders(holders)

	match := types.OrgMatch{
		OrgID:   best.id,
		OrgName: best.name,
		Score:   best.score,
		Matched: true,
	}
	return match, holders, nil
}

// maxAlternateSuggestions caps the disambiguation list offered when no
// candidate clears the score threshold.
const maxAlternateSuggestions = 3

// fetchAppointments queries by exact normalized-name equality first and
// degrades to an AND-of-tokens substring query when the exact filter returns
// zero rows.
func (s *Service) fetchAppointments(ctx context.Context, query string) ([]types.AppointmentObservation, error) {
	normalized := namematch.Normalize(query)
	rows, err := s.appointments.AppointmentsByOrgName(ctx, normalized, s.matching.MaxFetchRows)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	tokens := namematch.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	return s.appointments.AppointmentsByOrgTokens(ctx, tokens, s.matching.MaxFetchRows)
}

// rankOrgGroups groups rows by (org id, raw org name), scores each spelling
// against the query, and ranks by (score desc, observation count desc, most
// recent start desc, name asc). At least one group is returned for a
// non-empty row set.
func rankOrgGroups(rows []types.AppointmentObservation, query string) []orgGroup {
	type groupKey struct{ id, name string }
	index := map[groupKey]int{}
	var groups []orgGroup

	for _, row := range rows {
		key := groupKey{row.OrgID, row.OrgName}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, orgGroup{id: row.OrgID, name: row.OrgName})
		}
		groups[i].rows = append(groups[i].rows, row)
	}

	mostRecent := func(g orgGroup) (latest string) {
		// RFC3339-ish date strings compare correctly as text; undated rows
		// stay at the zero string and lose.
		for _, row := range g.rows {
			if row.Start != nil {
				if ts := row.Start.Format("2006-01-02"); ts > latest {
					latest = ts
				}
			}
		}
		return latest
	}

	for i := range groups {
		groups[i].score = namematch.Score(query, groups[i].name)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].score != groups[j].score {
			return groups[i].score > groups[j].score
		}
		if len(groups[i].rows) != len(groups[j].rows) {
			return len(groups[i].rows) > len(groups[j].rows)
		}
		ri, rj := mostRecent(groups[i]), mostRecent(groups[j])
		if ri != rj {
			return ri > rj
		}
		return groups[i].name < groups[j].name
	})
	return groups
}

// currentHoldersPerSeat reduces a group's rows to exactly one row per seat
// key: a dated observation beats an undated one, and a later start beats an
// earlier one. Rows are pre-sorted so the winner per seat is deterministic
// even on equal start dates.
func currentHoldersPerSeat(rows []types.AppointmentObservation) []types.SeatHolder {
	ordered := make([]types.AppointmentObservation, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if c := compareStartsDesc(ordered[i].Start, ordered[j].Start); c != 0 {
			return c < 0
		}
		if ordered[i].HolderName != ordered[j].HolderName {
			return ordered[i].HolderName < ordered[j].HolderName
		}
		return ordered[i].SourceRef < ordered[j].SourceRef
	})

	seen := map[types.OfficeSeat]bool{}
	var holders []types.SeatHolder
	for _, row := range ordered {
		seat := currentSeatKey(row)
		if seen[seat] {
			continue
		}
		seen[seat] = true
		holders = append(holders, types.SeatHolder{Seat: seat, Observation: row})
	}
	return holders
}

// currentSeatKey builds the seat identity used for the current-holder view.
// The disambiguator falls back through ordinal → sub-area → tokenized holder
// name → sentinel, so two seats differing only by incumbent are not silently
// collapsed.
func currentSeatKey(row types.AppointmentObservation) types.OfficeSeat {
	return seatKeyWithDisambiguator(row, true)
}

// successionSeatKey is the seat identity used by succession inference. It
// must not include the holder-name fallback: succession compares successive
// incumbents of the same seat, which is impossible if the incumbent is part
// of the key.
func successionSeatKey(row types.AppointmentObservation) types.OfficeSeat {
	return seatKeyWithDisambiguator(row, false)
}

func seatKeyWithDisambiguator(row types.AppointmentObservation, holderFallback bool) types.OfficeSeat {
	dis := types.SeatSentinelDisambiguator
	switch {
	case row.Ordinal > 0:
		dis = "ord:" + strconv.Itoa(row.Ordinal)
	case strings.TrimSpace(row.SubArea) != "":
		dis = "area:" + namematch.Normalize(row.SubArea)
	default:
		if holderFallback {
			if tokens := namematch.TokenizePerson(row.HolderName); len(tokens) > 0 {
				dis = "holder:" + strings.Join(tokens, " ")
			}
		}
	}
	return types.OfficeSeat{
		OrgID:         row.OrgID,
		Title:         namematch.Normalize(row.Title),
		Disambiguator: dis,
	}
}

// compareStartsDesc orders start dates most-recent-first with undated rows
// last. Returns a negative value when a sorts before b.
func compareStartsDesc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.After(*b):
		return -1
	case b.After(*a):
		return 1
	default:
		return 0
	}
}

// orderHolders sorts current holders for display: most recent start first,
// then title (locale-aware), then ordinal, then holder name.
func orderHolders(holders []types.SeatHolder) {
	titles := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(holders, func(i, j int) bool {
		oi, oj := holders[i].Observation, holders[j].Observation
		if c := compareStartsDesc(oi.Start, oj.Start); c != 0 {
			return c < 0
		}
		if c := titles.CompareString(oi.Title, oj.Title); c != 0 {
			return c < 0
		}
		if oi.Ordinal != oj.Ordinal {
			return oi.Ordinal < oj.Ordinal
		}
		return oi.HolderName < oj.HolderName
	})
}

// paginate slices the fully ranked holder list. An out-of-range page clamps
// to the last valid page rather than erroring.
func paginate(holders []types.SeatHolder, page, pageSize int) []types.SeatHolder {
	if len(holders) == 0 {
		return nil
	}
	lastPage := (len(holders) + pageSize - 1) / pageSize
	if page > lastPage {
		page = lastPage
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(holders) {
		end = len(holders)
	}
	return holders[start:end]
}

// clampPageSize applies the default and maximum page sizes.
func (s *Service) clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return s.matching.DefaultPageSize
	}
	if pageSize > s.matching.MaxPageSize {
		return s.matching.MaxPageSize
	}
	return pageSize
}
