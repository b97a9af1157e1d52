package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/opencargos/tenura/internal/storage"
	"github.com/opencargos/tenura/pkg/types"
)

// Ensure *AppointmentStore implements storage.AppointmentStore at compile time.
var _ storage.AppointmentStore = (*AppointmentStore)(nil)

// AppointmentStore implements storage.AppointmentStore using SQLite.
type AppointmentStore struct {
	db *sql.DB
}

// NewAppointmentStore creates a SQLite appointment store on an existing
// registry store's connection. Both feeds live in one snapshot file, so the
// stores share the handle rather than opening twice.
func NewAppointmentStore(registry *RegistryStore) *AppointmentStore {
	return &AppointmentStore{db: registry.DB()}
}

// Close is a no-op: the shared handle is owned by the registry store.
func (s *AppointmentStore) Close() error { return nil }

// appointmentSelectColumns is the canonical SELECT column list for the
// appointments table. It must match the scan order in scanAppointmentRows.
const appointmentSelectColumns = `
	org_id, org_name, title, ordinal, sub_area, holder_name, start_date, source_ref
`

// appointmentOrder keeps pagination reproducible: undated rows sort last, and
// ties break on the holder name.
const appointmentOrder = `
	ORDER BY org_id ASC, (start_date IS NULL) ASC, start_date DESC, holder_name ASC
`

// AppointmentsByOrgName returns appointment rows whose normalized
// organization name equals the given normalized text.
func (s *AppointmentStore) AppointmentsByOrgName(ctx context.Context, normalized string, limit int) ([]types.AppointmentObservation, error) {
	const querySQL = `
		SELECT ` + appointmentSelectColumns + `
		FROM appointments
		WHERE org_name_normalized = ?
	` + appointmentOrder + `
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, querySQL, normalized, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: appointments by org name: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAppointmentRows(rows)
}

// AppointmentsByOrgTokens returns appointment rows whose normalized
// organization name contains every token as a substring.
func (s *AppointmentStore) AppointmentsByOrgTokens(ctx context.Context, tokens []string, limit int) ([]types.AppointmentObservation, error) {
	conds := make([]string, 0, len(tokens))
	args := make([]interface{}, 0, len(tokens)+1)
	for _, tok := range tokens {
		conds = append(conds, "org_name_normalized LIKE ?")
		args = append(args, "%"+tok+"%")
	}
	args = append(args, limit)

	querySQL := `
		SELECT ` + appointmentSelectColumns + `
		FROM appointments
		WHERE ` + strings.Join(conds, " AND ") +
		appointmentOrder + `
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: appointments by org tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAppointmentRows(rows)
}

// scanAppointmentRows reads all rows returned by an appointment query. The
// SELECT column order must match appointmentSelectColumns.
func scanAppointmentRows(rows *sql.Rows) ([]types.AppointmentObservation, error) {
	var observations []types.AppointmentObservation
	for rows.Next() {
		var obs types.AppointmentObservation
		var subArea, start, sourceRef sql.NullString
		err := rows.Scan(
			&obs.OrgID,
			&obs.OrgName,
			&obs.Title,
			&obs.Ordinal,
			&subArea,
			&obs.HolderName,
			&start,
			&sourceRef,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan appointment row: %w", err)
		}
		if subArea.Valid {
			obs.SubArea = subArea.String
		}
		if start.Valid && start.String != "" {
			t, err := parseDate(start.String)
			if err != nil {
				return nil, err
			}
			obs.Start = &t
		}
		if sourceRef.Valid {
			obs.SourceRef = sourceRef.String
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: appointment rows error: %w", err)
	}
	return observations, nil
}
