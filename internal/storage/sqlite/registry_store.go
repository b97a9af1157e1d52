package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/opencargos/tenura/internal/storage"
	"github.com/opencargos/tenura/pkg/types"
)

// Ensure *RegistryStore implements storage.RegistryStore at compile time.
var _ storage.RegistryStore = (*RegistryStore)(nil)

// RegistryStore implements storage.RegistryStore using SQLite.
type RegistryStore struct {
	db *sql.DB
}

// NewRegistryStore opens (or creates) the SQLite snapshot at dsn and applies
// the schema. Use ":memory:" for an ephemeral test database.
func NewRegistryStore(dsn string) (*RegistryStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises access and avoids SQLITE_BUSY under concurrent page views.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	// FTS5 is compiled into modernc.org/sqlite, but older snapshot files may
	// have been produced without the virtual table. Creation failure is not
	// fatal; SearchIdentities negotiates down to LIKE.
	if _, err := db.Exec(SchemaFTS); err != nil {
		log.Printf("sqlite: failed to create FTS index (name search degraded): %v", err)
	}

	return &RegistryStore{db: db}, nil
}

// DB exposes the underlying handle so the appointment store can share it.
func (s *RegistryStore) DB() *sql.DB { return s.db }

// Close releases any resources held by the store.
func (s *RegistryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// identitySelectColumns is the canonical SELECT column list for the
// identities table. It must match the scan order in scanIdentityRow.
const identitySelectColumns = `
	canonical_name, num_companies, num_companies_with_registry_id, total_observations
`

// IdentityByName looks up an identity by exact canonical name.
func (s *RegistryStore) IdentityByName(ctx context.Context, name string) (*types.IdentitySummary, error) {
	const querySQL = `
		SELECT ` + identitySelectColumns + `
		FROM identities
		WHERE canonical_name = ?
	`
	return scanIdentityRow(s.db.QueryRowContext(ctx, querySQL, name))
}

// IdentityByNormalizedName looks up the best identity sharing the given
// normalized spelling.
func (s *RegistryStore) IdentityByNormalizedName(ctx context.Context, normalized string) (*types.IdentitySummary, error) {
	const querySQL = `
		SELECT ` + identitySelectColumns + `
		FROM identities
		WHERE normalized_name = ?
		ORDER BY num_companies_with_registry_id DESC, total_observations DESC
		LIMIT 1
	`
	return scanIdentityRow(s.db.QueryRowContext(ctx, querySQL, normalized))
}

// SearchIdentities runs an AND-of-token prefix search over the identity
// index: the FTS5 shape first, LIKE when the snapshot has no FTS table.
func (s *RegistryStore) SearchIdentities(ctx context.Context, tokens []string, limit, offset int) ([]types.IdentitySummary, int, error) {
	type page struct {
		rows  []types.IdentitySummary
		total int
	}

	result, strategy, err := storage.Negotiate(
		func() (page, error) {
			rows, total, err := s.searchFTS(ctx, tokens, limit, offset)
			return page{rows, total}, err
		},
		func() (page, error) {
			rows, total, err := s.searchLike(ctx, tokens, limit, offset)
			return page{rows, total}, err
		},
	)
	if err != nil {
		return nil, 0, err
	}
	if strategy == storage.StrategyFallback {
		log.Printf("sqlite: identity search degraded to %s query shape", strategy)
	}
	return result.rows, result.total, nil
}

// searchFTS is the indexed search shape: an AND-of-prefixes MATCH expression
// against the FTS5 table. FTS5 treats space-separated terms as an implicit
// AND, so no operator keyword is needed.
func (s *RegistryStore) searchFTS(ctx context.Context, tokens []string, limit, offset int) ([]types.IdentitySummary, int, error) {
	match := buildPrefixMatch(tokens)

	const querySQL = `
		SELECT i.canonical_name, i.num_companies, i.num_companies_with_registry_id, i.total_observations
		FROM identities_fts fts
		JOIN identities i ON i.rowid = fts.rowid
		WHERE identities_fts MATCH ?
		ORDER BY i.num_companies_with_registry_id DESC, i.total_observations DESC, i.canonical_name ASC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, querySQL, match, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: identity MATCH %q: %w", match, err)
	}
	defer func() { _ = rows.Close() }()

	identities, err := scanIdentityRows(rows)
	if err != nil {
		return nil, 0, err
	}

	const countSQL = `
		SELECT COUNT(*)
		FROM identities_fts
		WHERE identities_fts MATCH ?
	`
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, match).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: identity MATCH count: %w", err)
	}
	return identities, total, nil
}

// searchLike is the fallback shape: every token must appear as a substring
// of the normalized name.
func (s *RegistryStore) searchLike(ctx context.Context, tokens []string, limit, offset int) ([]types.IdentitySummary, int, error) {
	conds := make([]string, 0, len(tokens))
	args := make([]interface{}, 0, len(tokens)+2)
	for _, tok := range tokens {
		conds = append(conds, "normalized_name LIKE ?")
		args = append(args, "%"+tok+"%")
	}
	where := strings.Join(conds, " AND ")

	querySQL := `
		SELECT ` + identitySelectColumns + `
		FROM identities
		WHERE ` + where + `
		ORDER BY num_companies_with_registry_id DESC, total_observations DESC, canonical_name ASC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, querySQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: identity substring search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	identities, err := scanIdentityRows(rows)
	if err != nil {
		return nil, 0, err
	}

	countSQL := `SELECT COUNT(*) FROM identities WHERE ` + where
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: identity substring count: %w", err)
	}
	return identities, total, nil
}

// RolesByIdentity returns every role observation for the canonical identity,
// restricted to the given role kinds. Open spans come first, then newest
// start, then company name, so downstream grouping is deterministic.
func (s *RegistryStore) RolesByIdentity(ctx context.Context, canonicalName string, roleKinds []string) ([]types.RoleObservation, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roleKinds)), ",")
	querySQL := `
		SELECT person_name, role_kind, company_name, company_name_matched,
		       registry_id, start_date, end_date, source_ref
		FROM role_observations
		WHERE person_name = ? AND role_kind IN (` + placeholders + `)
		ORDER BY (end_date IS NULL) DESC, start_date DESC, company_name ASC
	`
	args := make([]interface{}, 0, len(roleKinds)+1)
	args = append(args, canonicalName)
	for _, kind := range roleKinds {
		args = append(args, kind)
	}

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: roles for %q: %w", canonicalName, err)
	}
	defer func() { _ = rows.Close() }()

	var roles []types.RoleObservation
	for rows.Next() {
		var role types.RoleObservation
		var matched, registryID, end, sourceRef sql.NullString
		var start string
		err := rows.Scan(
			&role.PersonName,
			&role.RoleKind,
			&role.CompanyName,
			&matched,
			&registryID,
			&start,
			&end,
			&sourceRef,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan role row: %w", err)
		}
		role.Start, err = parseDate(start)
		if err != nil {
			return nil, err
		}
		if matched.Valid {
			role.CompanyNameMatched = matched.String
		}
		if registryID.Valid {
			role.RegistryID = registryID.String
		}
		if end.Valid && end.String != "" {
			t, err := parseDate(end.String)
			if err != nil {
				return nil, err
			}
			role.End = &t
		}
		if sourceRef.Valid {
			role.SourceRef = sourceRef.String
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: role rows error: %w", err)
	}
	return roles, nil
}

// buildPrefixMatch renders tokens as an FTS5 AND-of-prefixes expression:
// ["GARCIA","JUAN"] → `"GARCIA"* "JUAN"*`. Terms are quoted so normalized
// tokens can never be misread as FTS5 operators.
func buildPrefixMatch(tokens []string) string {
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, `"`+tok+`"*`)
	}
	return strings.Join(terms, " ")
}

// parseDate parses the ISO-8601 date text the ingest pipeline writes.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse date %q: %w", s, err)
	}
	return t, nil
}

// scanIdentityRow scans a single QueryRow result into an IdentitySummary,
// mapping sql.ErrNoRows onto the storage sentinel.
func scanIdentityRow(row *sql.Row) (*types.IdentitySummary, error) {
	var identity types.IdentitySummary
	err := row.Scan(
		&identity.CanonicalName,
		&identity.NumCompanies,
		&identity.NumCompaniesWithRegistryID,
		&identity.TotalObservations,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan identity row: %w", err)
	}
	return &identity, nil
}

// scanIdentityRows reads all rows returned by a search query. The SELECT
// column order must match identitySelectColumns.
func scanIdentityRows(rows *sql.Rows) ([]types.IdentitySummary, error) {
	var identities []types.IdentitySummary
	for rows.Next() {
		var identity types.IdentitySummary
		err := rows.Scan(
			&identity.CanonicalName,
			&identity.NumCompanies,
			&identity.NumCompaniesWithRegistryID,
			&identity.TotalObservations,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan identity row: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: identity rows error: %w", err)
	}
	return identities, nil
}
