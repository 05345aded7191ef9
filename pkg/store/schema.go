// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS strings (
	id      INTEGER PRIMARY KEY,
	text    TEXT NOT NULL,
	context TEXT NOT NULL,
	skip    INTEGER NOT NULL DEFAULT 0,
	UNIQUE(text, context)
);

CREATE TABLE IF NOT EXISTS files (
	id        INTEGER PRIMARY KEY,
	namespace TEXT NOT NULL,
	job_id    TEXT NOT NULL,
	rel_path  TEXT NOT NULL,
	orphaned  INTEGER NOT NULL DEFAULT 0,
	UNIQUE(namespace, job_id, rel_path)
);
CREATE INDEX IF NOT EXISTS idx_files_ns_job ON files(namespace, job_id);

CREATE TABLE IF NOT EXISTS items (
	id        INTEGER PRIMARY KEY,
	file_id   INTEGER NOT NULL REFERENCES files(id),
	string_id INTEGER NOT NULL REFERENCES strings(id),
	hint      TEXT NOT NULL DEFAULT '',
	comment   TEXT NOT NULL DEFAULT '',
	orphaned  INTEGER NOT NULL DEFAULT 0,
	usn       INTEGER NOT NULL DEFAULT 0,
	UNIQUE(file_id, string_id)
);
CREATE INDEX IF NOT EXISTS idx_items_file ON items(file_id);
CREATE INDEX IF NOT EXISTS idx_items_string ON items(string_id);

CREATE TABLE IF NOT EXISTS translations (
	id      INTEGER PRIMARY KEY,
	item_id INTEGER NOT NULL REFERENCES items(id),
	lang    TEXT NOT NULL,
	text    TEXT NOT NULL DEFAULT '',
	fuzzy   INTEGER NOT NULL DEFAULT 0,
	comment TEXT NOT NULL DEFAULT '',
	merge   INTEGER NOT NULL DEFAULT 0,
	usn     INTEGER NOT NULL DEFAULT 0,
	UNIQUE(item_id, lang)
);
CREATE INDEX IF NOT EXISTS idx_translations_item_lang ON translations(item_id, lang);

CREATE TABLE IF NOT EXISTS properties (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usn_counter (
	id    INTEGER PRIMARY KEY CHECK (id = 1),
	value INTEGER NOT NULL
);
INSERT OR IGNORE INTO usn_counter (id, value) VALUES (1, 0);
`
