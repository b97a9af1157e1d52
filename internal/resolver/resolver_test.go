package resolver

import (
	"context"
	"time"

	"github.com/opencargos/tenura/internal/config"
	"github.com/opencargos/tenura/internal/storage"
	"github.com/opencargos/tenura/pkg/types"
)

// testConfig returns the default thresholds with a short backoff cooldown so
// guard-recovery tests don't sleep for minutes.
func testConfig() *config.Config {
	return &config.Config{
		Matching: config.MatchingConfig{
			MinMatchScore:            0.5,
			SuccessionScoreThreshold: 0.45,
			MinSearchLength:          2,
			MinOrgQueryLength:        3,
			MaxFetchRows:             400,
			DefaultPageSize:          20,
			MaxPageSize:              50,
		},
		Cache: config.CacheConfig{
			SearchTTL:       3 * time.Minute,
			ProfileTTL:      5 * time.Minute,
			MaxEntries:      64,
			BackoffCooldown: 25 * time.Millisecond,
		},
	}
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year, month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

// fakeRegistry is an in-memory RegistryStore that records call counts and the
// arguments of the last search.
type fakeRegistry struct {
	byName       map[string]types.IdentitySummary
	byNormalized map[string]types.IdentitySummary
	roles        map[string][]types.RoleObservation
	searchRows   []types.IdentitySummary
	searchTotal  int
	err          error

	nameCalls       int
	normalizedCalls int
	searchCalls     int
	roleCalls       int

	lastTokens []string
	lastLimit  int
	lastOffset int
}

func (f *fakeRegistry) IdentityByName(_ context.Context, name string) (*types.IdentitySummary, error) {
	f.nameCalls++
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.byName[name]; ok {
		return &id, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeRegistry) IdentityByNormalizedName(_ context.Context, normalized string) (*types.IdentitySummary, error) {
	f.normalizedCalls++
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.byNormalized[normalized]; ok {
		return &id, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeRegistry) SearchIdentities(_ context.Context, tokens []string, limit, offset int) ([]types.IdentitySummary, int, error) {
	f.searchCalls++
	f.lastTokens = tokens
	f.lastLimit = limit
	f.lastOffset = offset
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.searchRows, f.searchTotal, nil
}

func (f *fakeRegistry) RolesByIdentity(_ context.Context, canonicalName string, _ []string) ([]types.RoleObservation, error) {
	f.roleCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.roles[canonicalName], nil
}

func (f *fakeRegistry) Close() error { return nil }

// fakeAppointments is an in-memory AppointmentStore.
type fakeAppointments struct {
	byName    map[string][]types.AppointmentObservation
	tokenRows []types.AppointmentObservation
	err       error

	nameCalls  int
	tokenCalls int
}

func (f *fakeAppointments) AppointmentsByOrgName(_ context.Context, normalized string, _ int) ([]types.AppointmentObservation, error) {
	f.nameCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byName[normalized], nil
}

func (f *fakeAppointments) AppointmentsByOrgTokens(_ context.Context, _ []string, _ int) ([]types.AppointmentObservation, error) {
	f.tokenCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tokenRows, nil
}

func (f *fakeAppointments) Close() error { return nil }
