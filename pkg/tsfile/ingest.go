// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsfile

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kraklabs/lsync/internal/contract"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/internal/metrics"
	"github.com/kraklabs/lsync/pkg/store"
)

// RewriteParsedTSFileItemParams is passed by pointer to the
// rewrite_parsed_ts_file_item hook so it can mutate the incoming
// translation, comment, and fuzzy flag, or request an Item-level
// comment update by setting ItemCommentSet.
type RewriteParsedTSFileItemParams struct {
	FileID         int64
	ItemID         int64
	Lang           string
	Translation    string
	Comment        string
	Fuzzy          bool
	ItemComment    string
	ItemCommentSet bool
}

// Ingest reads the TS file at path for (fileID, lang), validates and
// applies each block to the store, and persists the new content hash.
// Returns nil without doing anything if path doesn't exist yet (the
// TS file hasn't been emitted for the first time) or if its hash
// matches what was recorded at the last ingest/emission.
func Ingest(s *store.CachedStore, logger *slog.Logger, bus *hooks.Bus, fileID int64, lang, path string) error {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read ts file %s: %w", path, err)
	}

	if res := contract.ValidateTSFileSize(string(data)); !res.OK {
		return fmt.Errorf("ts file %s: %s", path, res.Message)
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])

	prevHash, ok, err := s.CachedProperty(store.TSHashKey(fileID, lang))
	if err != nil {
		return fmt.Errorf("read ts hash for file %d lang %s: %w", fileID, lang, err)
	}
	if ok && prevHash == hash {
		return nil
	}

	entries, stoppedEarly := Parse(data, func(msg string) {
		logger.Warn("tsfile.ingest." + msg)
	})
	if stoppedEarly {
		logger.Warn("tsfile.ingest.fatal_block", "file_id", fileID, "lang", lang, "path", path)
	}

	for _, e := range entries {
		if err := applyEntry(s, logger, bus, fileID, lang, e); err != nil {
			return err
		}
	}

	if err := s.SetCachedProperty(store.TSHashKey(fileID, lang), hash); err != nil {
		return fmt.Errorf("write ts hash for file %d lang %s: %w", fileID, lang, err)
	}
	return nil
}

func applyEntry(s *store.CachedStore, logger *slog.Logger, bus *hooks.Bus, fileID int64, lang string, e Entry) error {
	translation := joinTranslations(e.Translations)

	if translation == "" && e.TranslatorComment == "" {
		// Rule 1: nothing to apply unless a Translation already exists
		// for this string — in that case the block still identifies a
		// real item whose translation is being cleared.
		stringID, ok, err := s.GetStringID(e.MsgID, e.Context, true)
		if err != nil {
			return fmt.Errorf("lookup string for ts entry: %w", err)
		}
		if !ok {
			return nil
		}
		itemID, ok, err := s.GetItemID(fileID, stringID, true)
		if err != nil {
			return fmt.Errorf("lookup item for ts entry: %w", err)
		}
		if !ok {
			return nil
		}
		existing, err := s.CachedTranslation(itemID, lang)
		if err != nil {
			return fmt.Errorf("lookup translation for ts entry: %w", err)
		}
		if existing == nil {
			return nil
		}
	}

	if e.Key == "" {
		logger.Warn("tsfile.ingest.missing_id", "msgid", e.MsgID)
		return nil
	}
	if regenerateKey(e.MsgID, e.Context) != e.Key {
		logger.Warn("tsfile.ingest.key_mismatch", "msgid", e.MsgID, "key", e.Key)
		return nil
	}

	stringID, ok, err := s.GetStringID(e.MsgID, e.Context, true)
	if err != nil {
		return fmt.Errorf("lookup string for ts entry: %w", err)
	}
	if !ok {
		logger.Warn("tsfile.ingest.unknown_string", "msgid", e.MsgID, "context", e.Context)
		return nil
	}
	str, err := s.GetString(stringID)
	if err != nil {
		return fmt.Errorf("load string %d: %w", stringID, err)
	}

	itemID, ok, err := s.GetItemID(fileID, stringID, true)
	if err != nil {
		return fmt.Errorf("lookup item for ts entry: %w", err)
	}
	if !ok {
		logger.Warn("tsfile.ingest.unknown_item", "file_id", fileID, "string_id", stringID)
		return nil
	}

	fuzzy := e.Fuzzy()
	comment := e.TranslatorComment

	params := &RewriteParsedTSFileItemParams{
		FileID: fileID, ItemID: itemID, Lang: lang,
		Translation: translation, Comment: comment, Fuzzy: fuzzy,
	}
	bus.Dispatch(hooks.PhaseRewriteParsedTSFileItem, params, hooks.CombineAnd)
	translation, comment, fuzzy = params.Translation, params.Comment, params.Fuzzy

	if params.ItemCommentSet {
		item, err := s.GetItem(itemID)
		if err != nil {
			return fmt.Errorf("load item %d: %w", itemID, err)
		}
		if item.Comment != params.ItemComment {
			if err := s.SetItemComment(itemID, params.ItemComment); err != nil {
				return fmt.Errorf("set item comment %d: %w", itemID, err)
			}
		}
	}

	if str.Skip {
		return nil
	}
	if translation == "" && fuzzy {
		fuzzy = false
	}

	existing, err := s.CachedTranslation(itemID, lang)
	if err != nil {
		return fmt.Errorf("lookup translation for item %d: %w", itemID, err)
	}
	if existing != nil && existing.Merge {
		if err := s.ClearTranslationMerge(existing.ID); err != nil {
			return fmt.Errorf("clear merge flag on translation %d: %w", existing.ID, err)
		}
		s.InvalidateTranslation(itemID, lang)
		return nil
	}
	if existing != nil && existing.Text == translation && existing.Comment == comment && existing.Fuzzy == fuzzy {
		return nil
	}

	if err := s.UpsertTranslation(itemID, lang, translation, fuzzy, comment); err != nil {
		return fmt.Errorf("upsert translation for item %d lang %s: %w", itemID, lang, err)
	}
	s.InvalidateTranslation(itemID, lang)
	metrics.USNBump()
	return nil
}

func joinTranslations(translations []string) string {
	switch len(translations) {
	case 0:
		return ""
	case 1:
		return translations[0]
	default:
		parts := make([]string, len(translations))
		copy(parts, translations)
		out := parts[0]
		for _, p := range parts[1:] {
			out += unitSeparator + p
		}
		return out
	}
}

func regenerateKey(text, context string) string {
	sum := md5.Sum([]byte(text + "\x00" + context))
	return hex.EncodeToString(sum[:])
}
