// Package postgres provides PostgreSQL implementations of the storage
// interfaces, backed by the live ingest database.
package postgres

// Schema contains the SQL statements to create the database schema for
// PostgreSQL. The ingest pipeline owns the data; the statements are idempotent
// so a read-only deployment can apply them against an empty database and come
// up serving empty results.
const Schema = `
-- Identities table: precomputed index of canonical person names with the
-- aggregate counts used for search ranking.
CREATE TABLE IF NOT EXISTS identities (
    canonical_name TEXT PRIMARY KEY,
    normalized_name TEXT NOT NULL,
    num_companies INTEGER NOT NULL DEFAULT 0,
    num_companies_with_registry_id INTEGER NOT NULL DEFAULT 0,
    total_observations INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_identities_normalized
    ON identities (normalized_name);

-- Role observations: one row per (person, role, company, span) record from
-- the corporate-registry feed.
CREATE TABLE IF NOT EXISTS role_observations (
    id BIGSERIAL PRIMARY KEY,
    person_name TEXT NOT NULL REFERENCES identities(canonical_name),
    role_kind TEXT NOT NULL,
    company_name TEXT NOT NULL,
    company_name_matched TEXT,
    registry_id TEXT,
    start_date DATE NOT NULL,
    end_date DATE,
    source_ref TEXT
);

CREATE INDEX IF NOT EXISTS idx_role_observations_person
    ON role_observations (person_name, role_kind);

-- Appointments: one row per observed office holding from the elected-office
-- feed. Rows never carry an end date; tenure ends are inferred downstream.
CREATE TABLE IF NOT EXISTS appointments (
    id BIGSERIAL PRIMARY KEY,
    org_id TEXT NOT NULL,
    org_name TEXT NOT NULL,
    org_name_normalized TEXT NOT NULL,
    title TEXT NOT NULL,
    ordinal INTEGER NOT NULL DEFAULT 0,
    sub_area TEXT,
    holder_name TEXT NOT NULL,
    start_date DATE,
    source_ref TEXT
);

CREATE INDEX IF NOT EXISTS idx_appointments_org_normalized
    ON appointments (org_name_normalized);
`

// MigrationFTS adds the tsvector column and GIN index used by the indexed
// search shape. Older snapshots may predate it; SearchIdentities negotiates
// down to ILIKE when the column is missing.
const MigrationFTS = `
ALTER TABLE identities
    ADD COLUMN IF NOT EXISTS name_tsv tsvector
    GENERATED ALWAYS AS (to_tsvector('simple', normalized_name)) STORED;

CREATE INDEX IF NOT EXISTS idx_identities_name_tsv
    ON identities USING GIN (name_tsv);
`
