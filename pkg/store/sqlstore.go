// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLStore is the raw CRUD layer over an embedded sqlite file. It
// makes no attempt at caching — that is CachedStore's job. Every
// mutating method takes the store's own *sql.Tx when one is open
// (Begin), or runs autocommit otherwise, mirroring the teacher's own
// single Backend.Execute/Query split but against a real driver instead
// of an in-house one.
type SQLStore struct {
	db *sql.DB
	tx *sql.Tx
}

// Open creates (or reuses) a sqlite file at path and ensures schema.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite + this store's own tx discipline: one writer at a time

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (s *SQLStore) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Begin opens the job-long transaction the pipeline holds for the
// whole run (see spec §5: "the store handle is held for the entire
// run; it wraps a DB transaction that is committed once at job end").
func (s *SQLStore) Begin() error {
	if s.tx != nil {
		return fmt.Errorf("store: transaction already open")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Commit commits the open transaction.
func (s *SQLStore) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

// Rollback discards the open transaction. Safe to call when none is open.
func (s *SQLStore) Rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

func (s *SQLStore) nextUSN() (int64, error) {
	q := s.q()
	if _, err := q.Exec(`UPDATE usn_counter SET value = value + 1 WHERE id = 1`); err != nil {
		return 0, err
	}
	var v int64
	if err := q.QueryRow(`SELECT value FROM usn_counter WHERE id = 1`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// GetStringID resolves (text, context) to a String ID, creating the
// row if nocreate is false and it doesn't exist. Returns ok=false if
// nocreate was set and the row doesn't exist.
func (s *SQLStore) GetStringID(text, context string, nocreate bool) (id int64, ok bool, err error) {
	q := s.q()
	err = q.QueryRow(`SELECT id FROM strings WHERE text = ? AND context = ?`, text, context).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}
	if nocreate {
		return 0, false, nil
	}
	res, err := q.Exec(`INSERT INTO strings (text, context) VALUES (?, ?)`, text, context)
	if err != nil {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	return id, true, err
}

// SetStringSkip updates a String's skip flag.
func (s *SQLStore) SetStringSkip(stringID int64, skip bool) error {
	_, err := s.q().Exec(`UPDATE strings SET skip = ? WHERE id = ?`, boolToInt(skip), stringID)
	return err
}

// GetString fetches a String by ID.
func (s *SQLStore) GetString(id int64) (*String, error) {
	var str String
	str.ID = id
	var skip int
	err := s.q().QueryRow(`SELECT text, context, skip FROM strings WHERE id = ?`, id).
		Scan(&str.Text, &str.Context, &skip)
	if err != nil {
		return nil, err
	}
	str.Skip = skip != 0
	return &str, nil
}

// GetFileID resolves (namespace, jobID, relPath) to a File ID.
func (s *SQLStore) GetFileID(namespace, jobID, relPath string, nocreate bool) (id int64, ok bool, err error) {
	q := s.q()
	err = q.QueryRow(`SELECT id FROM files WHERE namespace = ? AND job_id = ? AND rel_path = ?`,
		namespace, jobID, relPath).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}
	if nocreate {
		return 0, false, nil
	}
	res, err := q.Exec(`INSERT INTO files (namespace, job_id, rel_path) VALUES (?, ?, ?)`,
		namespace, jobID, relPath)
	if err != nil {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	return id, true, err
}

// GetFile fetches a File by ID.
func (s *SQLStore) GetFile(id int64) (*File, error) {
	var f File
	f.ID = id
	var orphaned int
	err := s.q().QueryRow(`SELECT namespace, job_id, rel_path, orphaned FROM files WHERE id = ?`, id).
		Scan(&f.Namespace, &f.JobID, &f.RelPath, &orphaned)
	if err != nil {
		return nil, err
	}
	f.Orphaned = orphaned != 0
	return &f, nil
}

// UpdateFilePath moves a File row to a new relative path (used by
// rename reconciliation, which keeps the File's identity and its
// Items/Translations intact).
func (s *SQLStore) UpdateFilePath(fileID int64, newRelPath string) error {
	_, err := s.q().Exec(`UPDATE files SET rel_path = ? WHERE id = ?`, newRelPath, fileID)
	return err
}

// SetFileOrphaned flips a File's orphaned flag.
func (s *SQLStore) SetFileOrphaned(fileID int64, orphaned bool) error {
	_, err := s.q().Exec(`UPDATE files SET orphaned = ? WHERE id = ?`, boolToInt(orphaned), fileID)
	return err
}

// ListFiles returns every File for (namespace, jobID), sorted by
// relative path — the deterministic ordering spec §5 requires.
func (s *SQLStore) ListFiles(namespace, jobID string) ([]File, error) {
	rows, err := s.q().Query(`SELECT id, rel_path, orphaned FROM files WHERE namespace = ? AND job_id = ?`,
		namespace, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		var orphaned int
		if err := rows.Scan(&f.ID, &f.RelPath, &orphaned); err != nil {
			return nil, err
		}
		f.Namespace, f.JobID = namespace, jobID
		f.Orphaned = orphaned != 0
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, rows.Err()
}

// GetItemID resolves (fileID, stringID) to an Item ID.
func (s *SQLStore) GetItemID(fileID, stringID int64, nocreate bool) (id int64, ok bool, err error) {
	q := s.q()
	err = q.QueryRow(`SELECT id FROM items WHERE file_id = ? AND string_id = ?`, fileID, stringID).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}
	if nocreate {
		return 0, false, nil
	}
	usn, err := s.nextUSN()
	if err != nil {
		return 0, false, err
	}
	res, err := q.Exec(`INSERT INTO items (file_id, string_id, usn) VALUES (?, ?, ?)`, fileID, stringID, usn)
	if err != nil {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	return id, true, err
}

// GetItem fetches an Item by ID.
func (s *SQLStore) GetItem(id int64) (*Item, error) {
	var it Item
	it.ID = id
	var orphaned int
	err := s.q().QueryRow(`SELECT file_id, string_id, hint, comment, orphaned, usn FROM items WHERE id = ?`, id).
		Scan(&it.FileID, &it.StringID, &it.Hint, &it.Comment, &orphaned, &it.USN)
	if err != nil {
		return nil, err
	}
	it.Orphaned = orphaned != 0
	return &it, nil
}

// SetItemHint sets an Item's hint, bumping its USN.
func (s *SQLStore) SetItemHint(itemID int64, hint string) error {
	usn, err := s.nextUSN()
	if err != nil {
		return err
	}
	_, err = s.q().Exec(`UPDATE items SET hint = ?, usn = ? WHERE id = ?`, hint, usn, itemID)
	return err
}

// SetItemComment sets an Item's comment, bumping its USN.
func (s *SQLStore) SetItemComment(itemID int64, comment string) error {
	usn, err := s.nextUSN()
	if err != nil {
		return err
	}
	_, err = s.q().Exec(`UPDATE items SET comment = ?, usn = ? WHERE id = ?`, comment, usn, itemID)
	return err
}

// SetItemOrphaned flips an Item's orphaned flag.
func (s *SQLStore) SetItemOrphaned(itemID int64, orphaned bool) error {
	_, err := s.q().Exec(`UPDATE items SET orphaned = ? WHERE id = ?`, boolToInt(orphaned), itemID)
	return err
}

// ItemsForFile returns every Item ID belonging to a file, in ascending
// ID order (used to compute the old-vs-new item set during orphan
// reconciliation, independent of any stored ordering property).
func (s *SQLStore) ItemsForFile(fileID int64) ([]int64, error) {
	rows, err := s.q().Query(`SELECT id FROM items WHERE file_id = ? ORDER BY id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetTranslationID resolves (itemID, lang) to a Translation ID.
func (s *SQLStore) GetTranslationID(itemID int64, lang string, nocreate bool) (id int64, ok bool, err error) {
	q := s.q()
	err = q.QueryRow(`SELECT id FROM translations WHERE item_id = ? AND lang = ?`, itemID, lang).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}
	if nocreate {
		return 0, false, nil
	}
	usn, err := s.nextUSN()
	if err != nil {
		return 0, false, err
	}
	res, err := q.Exec(`INSERT INTO translations (item_id, lang, usn) VALUES (?, ?, ?)`, itemID, lang, usn)
	if err != nil {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	return id, true, err
}

// GetTranslation fetches a Translation by (itemID, lang). Returns nil,
// nil if it doesn't exist yet.
func (s *SQLStore) GetTranslation(itemID int64, lang string) (*Translation, error) {
	var t Translation
	t.ItemID, t.Lang = itemID, lang
	var fuzzy, merge int
	err := s.q().QueryRow(
		`SELECT id, text, fuzzy, comment, merge, usn FROM translations WHERE item_id = ? AND lang = ?`,
		itemID, lang,
	).Scan(&t.ID, &t.Text, &fuzzy, &t.Comment, &merge, &t.USN)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Fuzzy, t.Merge = fuzzy != 0, merge != 0
	return &t, nil
}

// UpsertTranslation creates or updates a Translation, always bumping
// its USN — this is what TS emission's regeneration gate watches.
func (s *SQLStore) UpsertTranslation(itemID int64, lang, text string, fuzzy bool, comment string) error {
	usn, err := s.nextUSN()
	if err != nil {
		return err
	}
	_, err = s.q().Exec(`
		INSERT INTO translations (item_id, lang, text, fuzzy, comment, usn)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, lang) DO UPDATE SET
			text = excluded.text, fuzzy = excluded.fuzzy,
			comment = excluded.comment, usn = excluded.usn
	`, itemID, lang, text, boolToInt(fuzzy), comment, usn)
	return err
}

// ClearTranslationMerge clears the one-shot merge flag without
// touching text/fuzzy/comment or bumping USN (it is not a content
// change).
func (s *SQLStore) ClearTranslationMerge(translationID int64) error {
	_, err := s.q().Exec(`UPDATE translations SET merge = 0 WHERE id = ?`, translationID)
	return err
}

// SetTranslationMerge sets the one-shot merge flag, telling TS
// ingestion to ignore the next incoming update for this translation
// exactly once. Used by external tooling (e.g. a merge-conflict
// resolver) to protect a translation from being clobbered by a TS
// file that hasn't picked up the resolution yet.
func (s *SQLStore) SetTranslationMerge(translationID int64) error {
	_, err := s.q().Exec(`UPDATE translations SET merge = 1 WHERE id = ?`, translationID)
	return err
}

// HighestUSNForFileLang is the change oracle TS emission gates on: the
// maximum USN across the file's own items and their (lang)
// translations.
func (s *SQLStore) HighestUSNForFileLang(fileID int64, lang string) (int64, error) {
	var itemMax sql.NullInt64
	if err := s.q().QueryRow(`SELECT MAX(usn) FROM items WHERE file_id = ?`, fileID).Scan(&itemMax); err != nil {
		return 0, err
	}
	var trMax sql.NullInt64
	err := s.q().QueryRow(`
		SELECT MAX(t.usn) FROM translations t
		JOIN items i ON i.id = t.item_id
		WHERE i.file_id = ? AND t.lang = ?
	`, fileID, lang).Scan(&trMax)
	if err != nil {
		return 0, err
	}
	max := itemMax.Int64
	if trMax.Int64 > max {
		max = trMax.Int64
	}
	return max, nil
}

// FindBestTranslation looks for a translation of the same (text,
// context) elsewhere in the namespace, in the given language,
// excluding the given file. Returns ok=false if none exists.
// multipleVariants is true when more than one distinct translation
// text exists across candidates, signalling the caller to respect
// reuse_uncertain.
func (s *SQLStore) FindBestTranslation(namespace string, stringID int64, lang string, excludeFileID int64, allowOrphaned bool) (text string, fuzzy bool, comment string, multipleVariants bool, ok bool, err error) {
	q := s.q()
	query := `
		SELECT DISTINCT t.text, t.fuzzy, t.comment
		FROM translations t
		JOIN items i ON i.id = t.item_id
		JOIN files f ON f.id = i.file_id
		WHERE i.string_id = ? AND t.lang = ? AND f.namespace = ? AND i.file_id != ? AND t.text != ''
	`
	args := []any{stringID, lang, namespace, excludeFileID}
	if !allowOrphaned {
		query += ` AND i.orphaned = 0 AND f.orphaned = 0`
	}
	query += ` ORDER BY t.id`

	rows, err := q.Query(query, args...)
	if err != nil {
		return "", false, "", false, false, err
	}
	defer rows.Close()

	distinct := map[string]bool{}
	var first struct {
		text, comment string
		fuzzy         bool
	}
	for rows.Next() {
		var rt, rc string
		var rf int
		if err := rows.Scan(&rt, &rf, &rc); err != nil {
			return "", false, "", false, false, err
		}
		if !ok {
			first.text, first.fuzzy, first.comment = rt, rf != 0, rc
			ok = true
		}
		distinct[rt] = true
	}
	if err := rows.Err(); err != nil {
		return "", false, "", false, false, err
	}
	return first.text, first.fuzzy, first.comment, len(distinct) > 1, ok, nil
}

// TranslationCandidate is one distinct reuse candidate surfaced by
// FindBestTranslationCandidates, carrying enough context (the donor
// item's hint and file path) for a caller to rank candidates when more
// than one exists.
type TranslationCandidate struct {
	Text      string
	Fuzzy     bool
	Comment   string
	ItemHint  string
	FilePath  string
}

// FindBestTranslationCandidates is FindBestTranslation's sibling for
// callers that need to choose among multiple distinct candidates
// themselves (see pkg/translate's hint-similarity tie-break) rather
// than accept the first one found. Ordered by file path for a stable
// base ordering before any caller-side ranking.
func (s *SQLStore) FindBestTranslationCandidates(namespace string, stringID int64, lang string, excludeFileID int64, allowOrphaned bool) ([]TranslationCandidate, error) {
	q := s.q()
	query := `
		SELECT t.text, t.fuzzy, t.comment, i.hint, f.rel_path
		FROM translations t
		JOIN items i ON i.id = t.item_id
		JOIN files f ON f.id = i.file_id
		WHERE i.string_id = ? AND t.lang = ? AND f.namespace = ? AND i.file_id != ? AND t.text != ''
	`
	args := []any{stringID, lang, namespace, excludeFileID}
	if !allowOrphaned {
		query += ` AND i.orphaned = 0 AND f.orphaned = 0`
	}
	query += ` ORDER BY f.rel_path, t.id`

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := map[string]bool{}
	var candidates []TranslationCandidate
	for rows.Next() {
		var c TranslationCandidate
		var fuzzy int
		if err := rows.Scan(&c.Text, &fuzzy, &c.Comment, &c.ItemHint, &c.FilePath); err != nil {
			return nil, err
		}
		c.Fuzzy = fuzzy != 0
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// GetProperty fetches a raw property value.
func (s *SQLStore) GetProperty(key string) (value string, ok bool, err error) {
	err = s.q().QueryRow(`SELECT value FROM properties WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetProperty upserts a raw property value.
func (s *SQLStore) SetProperty(key, value string) error {
	_, err := s.q().Exec(`
		INSERT INTO properties (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// AllProperties returns every property whose key has the given prefix.
func (s *SQLStore) AllProperties(prefix string) (map[string]string, error) {
	rows, err := s.q().Query(`SELECT key, value FROM properties WHERE key LIKE ?`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// JoinIDs renders a []int64 as the comma-separated string the
// items:<file_id> property stores.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

// SplitIDs parses the comma-separated items:<file_id> property value
// back into a []int64. An empty string yields an empty (non-nil) slice.
func SplitIDs(s string) ([]int64, error) {
	if s == "" {
		return []int64{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		var id int64
		if _, err := fmt.Sscanf(p, "%d", &id); err != nil {
			return nil, fmt.Errorf("parse item id %q: %w", p, err)
		}
		out = append(out, id)
	}
	return out, nil
}
