package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are stored as base-10 TEXT so they keep arbitrary precision.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    creator TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT '',
    staking_amount TEXT NOT NULL,
    duration INTEGER NOT NULL CHECK (duration > 0),
    max_members INTEGER NOT NULL CHECK (max_members >= 2),
    mode TEXT NOT NULL CHECK (mode IN ('no-loss', 'hardcore')),
    total_staked TEXT NOT NULL,
    member_count INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    is_completed INTEGER NOT NULL DEFAULT 0,
    vault_principal TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    settled_at INTEGER NOT NULL DEFAULT 0,
    settled_by TEXT NOT NULL DEFAULT '',
    withdrawn_total TEXT NOT NULL DEFAULT '0',
    yield_total TEXT NOT NULL DEFAULT '0',
    CHECK (member_count <= max_members),
    CHECK (NOT (is_active = 1 AND is_completed = 1))
);

CREATE TABLE IF NOT EXISTS memberships (
    group_id INTEGER NOT NULL,
    account TEXT NOT NULL,
    seq INTEGER NOT NULL,
    stake TEXT NOT NULL,
    has_staked INTEGER NOT NULL DEFAULT 1,
    staked_at INTEGER NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0,
    principal_owed TEXT NOT NULL DEFAULT '0',
    yield_allocation TEXT NOT NULL DEFAULT '0',
    claimed INTEGER NOT NULL DEFAULT 0,
    claimed_at INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (group_id, account),
    UNIQUE (group_id, seq),
    FOREIGN KEY (group_id) REFERENCES groups(id)
);

CREATE TABLE IF NOT EXISTS attestations (
    group_id INTEGER PRIMARY KEY,
    agent TEXT NOT NULL,
    submitted_at INTEGER NOT NULL,
    FOREIGN KEY (group_id) REFERENCES groups(id)
);

CREATE TABLE IF NOT EXISTS attestation_verdicts (
    group_id INTEGER NOT NULL,
    account TEXT NOT NULL,
    completed INTEGER NOT NULL,
    PRIMARY KEY (group_id, account),
    FOREIGN KEY (group_id) REFERENCES attestations(group_id)
);

CREATE TABLE IF NOT EXISTS payouts (
    id TEXT PRIMARY KEY,
    group_id INTEGER NOT NULL,
    account TEXT NOT NULL,
    principal TEXT NOT NULL,
    yield TEXT NOT NULL,
    total TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (group_id, account),
    FOREIGN KEY (group_id, account) REFERENCES memberships(group_id, account)
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    handle TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    credential_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_groups_active ON groups(is_active, created_at);
CREATE INDEX IF NOT EXISTS idx_memberships_group_seq ON memberships(group_id, seq);
CREATE INDEX IF NOT EXISTS idx_payouts_group_id ON payouts(group_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
