package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS favorites (
	kind       TEXT NOT NULL CHECK(kind IN ('medications', 'unmet_needs', 'tactics')),
	record_id  INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (kind, record_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	details    TEXT NOT NULL DEFAULT '{}',
	count      INTEGER NOT NULL,
	delta      INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS drug_dealer (
	id_drugdealer     INTEGER PRIMARY KEY AUTOINCREMENT,
	laboratory        TEXT NOT NULL DEFAULT '',
	drug_name         TEXT NOT NULL DEFAULT '',
	active_ingredient TEXT NOT NULL DEFAULT '',
	therapeutic_area  TEXT NOT NULL DEFAULT '',
	indication        TEXT NOT NULL DEFAULT '',
	phase             TEXT NOT NULL DEFAULT '',
	nation            TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS unmet_needs (
	id_unmet_need    INTEGER PRIMARY KEY AUTOINCREMENT,
	laboratory       TEXT NOT NULL DEFAULT '',
	drug_name        TEXT NOT NULL DEFAULT '',
	therapeutic_area TEXT NOT NULL DEFAULT '',
	unmet_need       TEXT NOT NULL DEFAULT '',
	population       TEXT NOT NULL DEFAULT '',
	evidence         TEXT NOT NULL DEFAULT '',
	score            INTEGER NOT NULL DEFAULT 0 CHECK(score BETWEEN 0 AND 10),
	created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pharma_tactics (
	id_tactic     INTEGER PRIMARY KEY AUTOINCREMENT,
	id_unmet_need INTEGER REFERENCES unmet_needs(id_unmet_need) ON DELETE SET NULL,
	laboratory    TEXT NOT NULL DEFAULT '',
	drug_name     TEXT NOT NULL DEFAULT '',
	tactic        TEXT NOT NULL DEFAULT '',
	owner         TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'planned',
	due_date      DATETIME,
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_drug_dealer_laboratory ON drug_dealer(laboratory);
CREATE INDEX IF NOT EXISTS idx_unmet_needs_laboratory ON unmet_needs(laboratory);
CREATE INDEX IF NOT EXISTS idx_pharma_tactics_unmet_need ON pharma_tactics(id_unmet_need);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
