// Package sqlite provides SQLite implementations of the storage interfaces,
// backed by the nightly snapshot file the ingest pipeline publishes. The same
// backend serves tests through an in-memory database.
package sqlite

// Schema contains the SQL statements to create the database schema for
// SQLite. All statements are idempotent so opening a fresh snapshot path
// yields an empty, servable database.
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
-- the corporate-registry feed. Dates are stored as ISO-8601 text.
CREATE TABLE IF NOT EXISTS role_observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    person_name TEXT NOT NULL,
    role_kind TEXT NOT NULL,
    company_name TEXT NOT NULL,
    company_name_matched TEXT,
    registry_id TEXT,
    start_date TEXT NOT NULL,
    end_date TEXT,
    source_ref TEXT
);

CREATE INDEX IF NOT EXISTS idx_role_observations_person
    ON role_observations (person_name, role_kind);

-- Appointments: one row per observed office holding from the elected-office
-- feed. Rows never carry an end date; tenure ends are inferred downstream.
CREATE TABLE IF NOT EXISTS appointments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    org_id TEXT NOT NULL,
    org_name TEXT NOT NULL,
    org_name_normalized TEXT NOT NULL,
    title TEXT NOT NULL,
    ordinal INTEGER NOT NULL DEFAULT 0,
    sub_area TEXT,
    holder_name TEXT NOT NULL,
    start_date TEXT,
    source_ref TEXT
);

CREATE INDEX IF NOT EXISTS idx_appointments_org_normalized
    ON appointments (org_name_normalized);
`

// SchemaFTS creates the FTS5 virtual table over normalized identity names,
// kept in sync with the identities table via triggers. Builds without the
// FTS5 module reject this; SearchIdentities then negotiates down to LIKE.
const SchemaFTS = `
CREATE VIRTUAL TABLE IF NOT EXISTS identities_fts USING fts5(
    normalized_name,
    content='identities',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS identities_fts_insert AFTER INSERT ON identities BEGIN
    INSERT INTO identities_fts(rowid, normalized_name)
    VALUES (new.rowid, new.normalized_name);
END;

CREATE TRIGGER IF NOT EXISTS identities_fts_delete AFTER DELETE ON identities BEGIN
    INSERT INTO identities_fts(identities_fts, rowid, normalized_name)
    VALUES ('delete', old.rowid, old.normalized_name);
END;

CREATE TRIGGER IF NOT EXISTS identities_fts_update AFTER UPDATE ON identities BEGIN
    INSERT INTO identities_fts(identities_fts, rowid, normalized_name)
    VALUES ('delete', old.rowid, old.normalized_name);
    INSERT INTO identities_fts(rowid, normalized_name)
    VALUES (new.rowid, new.normalized_name);
END;
`
