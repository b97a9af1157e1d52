package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/opencargos/tenura/internal/config"
	"github.com/opencargos/tenura/internal/namematch"
	"github.com/opencargos/tenura/internal/storage"
	"github.com/opencargos/tenura/pkg/types"
)

// searchPage is one cached page of identity search results.
type searchPage struct {
	Rows  []types.IdentitySummary
	Total int
}

// holdersPage is one cached page of current office holders.
type holdersPage struct {
	Match types.OrgMatch
	Rows  []types.SeatHolder
	Total int
}

// Service is the resolution core exposed to the presentation layer. It wires
// the corporate role linker and the office seat resolver to the two stores,
// and owns the process-wide caches and the backoff guard.
//
// Either store may be nil (not configured); the corresponding operations then
// log once and serve empty results. A failure in one resolver never affects
// the other — they share only the scorer, the normalizer, and the guard.
type Service struct {
	registry     storage.RegistryStore
	appointments storage.AppointmentStore
	ranking      *Ranking

	matching config.MatchingConfig
	cache    config.CacheConfig

	guard        *Guard
	searchCache  *Cache[searchPage]
	profileCache *Cache[*types.Profile]
	holdersCache *Cache[holdersPage]

	now func() time.Time

	registryMissingOnce     sync.Once
	appointmentsMissingOnce sync.Once
}

// NewService creates the resolution core. registry, appointments, and ranking
// may each be nil.
func NewService(cfg *config.Config, registry storage.RegistryStore, appointments storage.AppointmentStore, ranking *Ranking) *Service {
	s := &Service{
		registry:     registry,
		appointments: appointments,
		ranking:      ranking,
		matching:     cfg.Matching,
		cache:        cfg.Cache,
		guard:        NewGuard(cfg.Cache.BackoffCooldown),
		now:          time.Now,
	}
	s.searchCache = NewCache[searchPage](cfg.Cache.MaxEntries, s.clock)
	s.profileCache = NewCache[*types.Profile](cfg.Cache.MaxEntries, s.clock)
	s.holdersCache = NewCache[holdersPage](cfg.Cache.MaxEntries, s.clock)
	return s
}

// clock indirects through s.now so tests can swap the time source after
// construction and have every cache observe it.
func (s *Service) clock() time.Time { return s.now() }

// ResolveIdentityProfile resolves a free-text person-name query to one
// canonical identity and assembles its corporate profile. The boolean is
// false when the query is too short, no identity matches, or the store is
// unavailable — the caller cannot tell these apart, by design.
func (s *Service) ResolveIdentityProfile(ctx context.Context, queryName string) (*types.Profile, bool) {
	query := strings.TrimSpace(queryName)
	if len([]rune(query)) < s.matching.MinSearchLength {
		return nil, false
	}
	if s.registry == nil {
		s.registryMissingOnce.Do(func() {
			log.Printf("resolver: registry store not configured, serving empty profiles")
		})
		return nil, false
	}

	key := "profile:" + namematch.Normalize(query)
	if profile, ok := s.profileCache.Get(key); ok {
		return profile, true
	}

	var profile *types.Profile
	err := s.guard.Do(func() error {
		var err error
		profile, err = s.assembleProfile(ctx, query)
		return err
	})
	if err != nil {
		s.degrade("profile", err)
		return nil, false
	}

	// Never memoize a result assembled from an aborted call.
	if ctx.Err() == nil {
		s.profileCache.Set(key, profile, s.cache.ProfileTTL)
	}
	return profile, true
}

// SearchIdentities runs a paginated AND-of-token search over the identity
// index. Queries below the minimum length return empty without a store call.
func (s *Service) SearchIdentities(ctx context.Context, query string, offset, limit int) ([]types.IdentitySummary, int) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < s.matching.MinSearchLength {
		return nil, 0
	}
	tokens := namematch.TokenizePerson(query)
	if len(tokens) == 0 {
		return nil, 0
	}
	if s.registry == nil {
		s.registryMissingOnce.Do(func() {
			log.Printf("resolver: registry store not configured, serving empty search results")
		})
		return nil, 0
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.matching.DefaultPageSize
	}
	if limit > s.matching.MaxPageSize {
		limit = s.matching.MaxPageSize
	}

	key := fmt.Sprintf("search:%s:%d:%d", strings.Join(tokens, " "), offset, limit)
	if page, ok := s.searchCache.Get(key); ok {
		return page.Rows, page.Total
	}

	var rows []types.IdentitySummary
	var total int
	err := s.guard.Do(func() error {
		var err error
		rows, total, err = s.registry.SearchIdentities(ctx, tokens, limit, offset)
		return err
	})
	if err != nil {
		s.degrade("search", err)
		return nil, 0
	}

	if ctx.Err() == nil {
		s.searchCache.Set(key, searchPage{Rows: rows, Total: total}, s.cache.SearchTTL)
	}
	return rows, total
}

// TopRankedIdentities returns up to n rows of the precomputed ranking.
func (s *Service) TopRankedIdentities(n int) []types.RankedIdentity {
	if s.ranking == nil {
		return nil
	}
	return s.ranking.Top(n)
}

// FormatDisplayName renders a registry-style raw name for display. Pure
// passthrough to the namematch package, re-exported so the presentation layer
// depends on one surface.
func (s *Service) FormatDisplayName(raw string) string {
	return namematch.FormatDisplayName(raw)
}

// assembleProfile resolves the canonical identity and builds the per-company
// aggregates. Returns storage.ErrNotFound when no identity matches.
func (s *Service) assembleProfile(ctx context.Context, query string) (*types.Profile, error) {
	identity, err := s.resolveCanonical(ctx, query)
	if err != nil {
		return nil, err
	}

	roles, err := s.registry.RolesByIdentity(ctx, identity.CanonicalName, types.AllowedRoleKinds)
	if err != nil {
		return nil, err
	}

	companies := groupRolesByCompany(roles)
	rankCompanyAggregates(companies)

	registryIDs := map[string]bool{}
	for _, c := range companies {
		if c.RegistryID != "" {
			registryIDs[c.RegistryID] = true
		}
	}

	profile := &types.Profile{
		CanonicalName:              identity.CanonicalName,
		DisplayName:                namematch.FormatDisplayName(identity.CanonicalName),
		Companies:                  companies,
		NumCompanies:               len(companies),
		NumCompaniesWithRegistryID: len(registryIDs),
	}
	if s.ranking != nil {
		profile.RankingPosition = s.ranking.Position(identity.CanonicalName)
	}
	return profile, nil
}

// resolveCanonical maps a query name to one stored identity: exact
// case-sensitive key lookup first (cheapest, covers the common path), then a
// normalized-text lookup ranked by the store's tie-break.
func (s *Service) resolveCanonical(ctx context.Context, query string) (*types.IdentitySummary, error) {
	identity, err := s.registry.IdentityByName(ctx, query)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return s.registry.IdentityByNormalizedName(ctx, namematch.Normalize(query))
}

// groupRolesByCompany folds role observations into per-company aggregates,
// keyed by (raw name, matched name, registry id). Group order follows the
// first appearance in the store's deterministic row order.
func groupRolesByCompany(roles []types.RoleObservation) []types.CompanyAggregate {
	type companyKey struct {
		name, matched, registryID string
	}

	index := map[companyKey]int{}
	var companies []types.CompanyAggregate

	for _, role := range roles {
		key := companyKey{role.CompanyName, role.CompanyNameMatched, role.RegistryID}
		i, ok := index[key]
		if !ok {
			i = len(companies)
			index[key] = i
			companies = append(companies, types.CompanyAggregate{
				CompanyName:        role.CompanyName,
				CompanyNameMatched: role.CompanyNameMatched,
				RegistryID:         role.RegistryID,
				FirstStart:         role.Start,
			})
		}

		agg := &companies[i]
		agg.NumSpans++
		agg.Roles = append(agg.Roles, role)
		if role.Start.Before(agg.FirstStart) {
			agg.FirstStart = role.Start
		}
		if role.End == nil {
			agg.ActiveSpans++
			// An open span makes the aggregate's "last end" ongoing.
			agg.LastEnd = nil
		} else if agg.ActiveSpans == 0 {
			if agg.LastEnd == nil || role.End.After(*agg.LastEnd) {
				end := *role.End
				agg.LastEnd = &end
			}
		}
	}
	return companies
}

// rankCompanyAggregates orders groups by (active spans desc, total spans
// desc), surfacing current, high-activity relationships first. The sort is
// stable so ties keep the deterministic first-seen order.
func rankCompanyAggregates(companies []types.CompanyAggregate) {
	sort.SliceStable(companies, func(i, j int) bool {
		if companies[i].ActiveSpans != companies[j].ActiveSpans {
			return companies[i].ActiveSpans > companies[j].ActiveSpans
		}
		return companies[i].NumSpans > companies[j].NumSpans
	})
}

// degrade maps a lookup failure onto the silent-degradation contract:
// NotFound is expected and silent, AccessBlocked was already logged by the
// guard's open transition, everything else is logged here.
func (s *Service) degrade(op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, storage.ErrAccessBlocked):
	default:
		log.Printf("resolver: %s lookup failed: %v", op, err)
	}
}
