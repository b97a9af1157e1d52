package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/opencargos/tenura/internal/namematch"
	"github.com/opencargos/tenura/pkg/types"
)

// TenureTimeline reconstructs the historical tenure periods for every seat of
// the best-matching organization. This is the succession-inference path used
// by historical views; the current-holder view never consults it.
//
// For each dated observation the successor is the nearest later observation
// in the same seat whose holder name scores below the succession threshold
// against the current holder — a different person starting later. When a
// successor exists the period ends the day before the successor starts;
// otherwise the incumbent is presumed still in office. Seats with no dated
// observations at all yield periods with an unknown end.
func (s *Service) TenureTimeline(ctx context.Context, orgQuery string) []types.SeatTenure {
	query := strings.TrimSpace(orgQuery)
	if len([]rune(query)) < s.matching.MinOrgQueryLength {
		return nil
	}
	if s.appointments == nil {
		return nil
	}

	var timeline []types.SeatTenure
	err := s.guard.Do(func() error {
		rows, err := s.fetchAppointments(ctx, query)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		groups := rankOrgGroups(rows, query)
		if groups[0].score < s.matching.MinMatchScore {
			return nil
		}
		timeline = s.inferSeatTenures(groups[0].rows)
		return nil
	})
	if err != nil {
		s.degrade("tenure timeline", err)
		return nil
	}
	return timeline
}

// inferSeatTenures buckets observations by succession seat key and runs the
// inference over each bucket. Seats come out ordered by (title, disambiguator)
// so repeated calls paginate reproducibly.
func (s *Service) inferSeatTenures(rows []types.AppointmentObservation) []types.SeatTenure {
	buckets := map[types.OfficeSeat][]types.AppointmentObservation{}
	var seats []types.OfficeSeat
	for _, row := range rows {
		seat := successionSeatKey(row)
		if _, ok := buckets[seat]; !ok {
			seats = append(seats, seat)
		}
		buckets[seat] = append(buckets[seat], row)
	}

	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Title != seats[j].Title {
			return seats[i].Title < seats[j].Title
		}
		return seats[i].Disambiguator < seats[j].Disambiguator
	})

	timeline := make([]types.SeatTenure, 0, len(seats))
	for _, seat := range seats {
		timeline = append(timeline, types.SeatTenure{
			Seat:    seat,
			Periods: s.inferPeriods(buckets[seat]),
		})
	}
	return timeline
}

// inferPeriods reconstructs the tenure periods of one seat from its
// time-ordered observations.
func (s *Service) inferPeriods(observations []types.AppointmentObservation) []types.TenurePeriod {
	var dated, undated []types.AppointmentObservation
	for _, o := range observations {
		if o.Start != nil {
			dated = append(dated, o)
		} else {
			undated = append(undated, o)
		}
	}

	sort.SliceStable(dated, func(i, j int) bool {
		if !dated[i].Start.Equal(*dated[j].Start) {
			return dated[i].Start.Before(*dated[j].Start)
		}
		return dated[i].HolderName < dated[j].HolderName
	})

	var periods []types.TenurePeriod
	for i, obs := range dated {
		period := types.TenurePeriod{
			HolderName:    obs.HolderName,
			Start:         obs.Start,
			EndInferredBy: types.EndOpen,
		}
		// Nearest later observation with a sufficiently different holder
		// name marks the end of this tenure.
		for _, later := range dated[i+1:] {
			if !later.Start.After(*obs.Start) {
				continue
			}
			if namematch.Score(obs.HolderName, later.HolderName) < s.matching.SuccessionScoreThreshold {
				end := later.Start.AddDate(0, 0, -1)
				period.End = &end
				period.EndInferredBy = types.EndBySuccessor
				break
			}
		}
		periods = append(periods, period)
	}

	// Observations without a date cannot anchor any inference.
	for _, obs := range undated {
		periods = append(periods, types.TenurePeriod{
			HolderName:    obs.HolderName,
			EndInferredBy: types.EndUnknown,
		})
	}
	return periods
}
