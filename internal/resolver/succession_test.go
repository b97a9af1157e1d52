package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencargos/tenura/pkg/types"
)

func mataroRows() []types.AppointmentObservation {
	return []types.AppointmentObservation{
		// The mayor's seat changes hands once.
		{OrgID: "ORG5", OrgName: "AJUNTAMENT DE MATARO", Title: "Alcalde", HolderName: "GARCIA LOPEZ MARIA", Start: datePtr(2019, 1, 1)},
		{OrgID: "ORG5", OrgName: "AJUNTAMENT DE MATARO", Title: "Alcalde", HolderName: "FERNANDEZ RUIZ PABLO", Start: datePtr(2022, 6, 15)},
		// The secretary is re-appointed: same person, two dated rows.
		{OrgID: "ORG5", OrgName: "AJUNTAMENT DE MATARO", Title: "Secretari", HolderName: "SOLER VIDAL ANNA", Start: datePtr(2018, 3, 1)},
		{OrgID: "ORG5", OrgName: "AJUNTAMENT DE MATARO", Title: "Secretari", HolderName: "SOLER VIDAL ANNA", Start: datePtr(2021, 3, 1)},
		// The comptroller is known only from an undated historical row.
		{OrgID: "ORG5", OrgName: "AJUNTAMENT DE MATARO", Title: "Interventor", HolderName: "CAMPS ARNAU JORDI"},
	}
}

func TestTenureTimeline(t *testing.T) {
	store := &fakeAppointments{
		byName: map[string][]types.AppointmentObservation{
			"AJUNTAMENT DE MATARO": mataroRows(),
		},
	}
	svc := NewService(testConfig(), nil, store, nil)

	timeline := svc.TenureTimeline(context.Background(), "Ajuntament de Mataró")
	require.Len(t, timeline, 3)

	// Seats come out ordered by title.
	assert.Equal(t, "ALCALDE", timeline[0].Seat.Title)
	assert.Equal(t, "INTERVENTOR", timeline[1].Seat.Title)
	assert.Equal(t, "SECRETARI", timeline[2].Seat.Title)

	// A successor's start closes the previous tenure the day before.
	mayors := timeline[0].Periods
	require.Len(t, mayors, 2)
	assert.Equal(t, "GARCIA LOPEZ MARIA", mayors[0].HolderName)
	assert.Equal(t, date(2019, 1, 1), *mayors[0].Start)
	require.NotNil(t, mayors[0].End)
	assert.Equal(t, date(2022, 6, 14), *mayors[0].End)
	assert.Equal(t, types.EndBySuccessor, mayors[0].EndInferredBy)

	assert.Equal(t, "FERNANDEZ RUIZ PABLO", mayors[1].HolderName)
	assert.Nil(t, mayors[1].End)
	assert.Equal(t, types.EndOpen, mayors[1].EndInferredBy)

	// A later row for the same person is a re-appointment, not a successor.
	secretaries := timeline[2].Periods
	require.Len(t, secretaries, 2)
	for _, p := range secretaries {
		assert.Equal(t, "SOLER VIDAL ANNA", p.HolderName)
		assert.Nil(t, p.End)
		assert.Equal(t, types.EndOpen, p.EndInferredBy)
	}

	// Undated rows anchor nothing.
	comptrollers := timeline[1].Periods
	require.Len(t, comptrollers, 1)
	assert.Nil(t, comptrollers[0].Start)
	assert.Equal(t, types.EndUnknown, comptrollers[0].EndInferredBy)
}

func TestTenureTimelineSharesSeatAcrossHolders(t *testing.T) {
	store := &fakeAppointments{
		byName: map[string][]types.AppointmentObservation{
			"AJUNTAMENT DE MATARO": mataroRows(),
		},
	}
	svc := NewService(testConfig(), nil, store, nil)

	timeline := svc.TenureTimeline(context.Background(), "Ajuntament de Mataró")
	require.NotEmpty(t, timeline)

	// Succession inference keys the mayor's seat without the holder name;
	// both incumbents land in one seat.
	assert.Equal(t, types.OfficeSeat{OrgID: "ORG5", Title: "ALCALDE", Disambiguator: types.SeatSentinelDisambiguator}, timeline[0].Seat)
	assert.Len(t, timeline[0].Periods, 2)
}

func TestTenureTimelineBelowThreshold(t *testing.T) {
	store := &fakeAppointments{tokenRows: mataroRows()}
	svc := NewService(testConfig(), nil, store, nil)

	timeline := svc.TenureTimeline(context.Background(), "Diputacio de Lleida")
	assert.Nil(t, timeline)
}

func TestTenureTimelineShortQuery(t *testing.T) {
	store := &fakeAppointments{tokenRows: mataroRows()}
	svc := NewService(testConfig(), nil, store, nil)

	assert.Nil(t, svc.TenureTimeline(context.Background(), "AB"))
	assert.Equal(t, 0, store.nameCalls)
}

func TestTenureTimelineWithoutStore(t *testing.T) {
	svc := NewService(testConfig(), nil, nil, nil)
	assert.Nil(t, svc.TenureTimeline(context.Background(), "Ajuntament de Mataró"))
}
