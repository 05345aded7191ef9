// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsfile

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/kraklabs/lsync/internal/atomicfile"
	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/internal/metrics"
	"github.com/kraklabs/lsync/pkg/store"
)

// Resolver resolves the translation for one item/lang pair, per the
// engine's §4.7 translation-resolution order. Implemented by
// pkg/translate; injected here so tsfile doesn't import it directly.
type Resolver func(itemID int64, lang string) (text string, fuzzy bool, comment string, err error)

// CanTranslateParams is passed to the can_translate hook, which may
// veto emitting a translation for this item by returning false.
type CanTranslateParams struct {
	ItemID int64
	Lang   string
	Text   string
}

// AddDevCommentParams is passed to the add_dev_comment hook, which may
// append extra developer-facing comment lines.
type AddDevCommentParams struct {
	ItemID   int64
	Lang     string
	Comments []string
}

// EmitResult reports what Emit decided and did.
type EmitResult struct {
	Regenerated bool // bytes were written to path
	USNChanged  bool // current_usn != stored_usn, forces localized re-render
}

// Emit decides whether to regenerate the TS file for (fileID, lang)
// and, if so, assembles it from the store's current items/strings and
// writes it to path.
func Emit(s *store.CachedStore, logger *slog.Logger, bus *hooks.Bus, job config.Job, resolve Resolver, fileID int64, lang, relPath, path string, optimizationsEnabled bool) (EmitResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	currentUSN, err := highestUSN(s, fileID, lang, job.SimilarLanguages)
	if err != nil {
		return EmitResult{}, err
	}

	storedUSNStr, hadStored, err := s.CachedProperty(store.USNKey(fileID, lang))
	if err != nil {
		return EmitResult{}, fmt.Errorf("read usn for file %d lang %s: %w", fileID, lang, err)
	}
	var storedUSN int64
	if hadStored {
		storedUSN, _ = strconv.ParseInt(storedUSNStr, 10, 64)
	}
	usnChanged := currentUSN != storedUSN

	_, statErr := os.Stat(path)
	targetMissing := statErr != nil

	regenerate := !optimizationsEnabled || job.RebuildTSFiles || targetMissing || usnChanged
	if !regenerate {
		metrics.TSSkipped()
		return EmitResult{USNChanged: false}, nil
	}

	itemIDs, err := orderedItemIDs(s, fileID)
	if err != nil {
		return EmitResult{}, err
	}

	var entries []Entry
	seen := map[int64]bool{}
	for _, itemID := range itemIDs {
		if seen[itemID] {
			logger.Warn("tsfile.emit.duplicate_item", "file_id", fileID, "item_id", itemID)
			continue
		}
		seen[itemID] = true

		item, err := s.GetItem(itemID)
		if err != nil {
			return EmitResult{}, fmt.Errorf("load item %d: %w", itemID, err)
		}
		str, err := s.GetString(item.StringID)
		if err != nil {
			return EmitResult{}, fmt.Errorf("load string %d: %w", item.StringID, err)
		}
		if str.Skip {
			continue
		}

		text, fuzzy, comment, err := resolve(itemID, lang)
		if err != nil {
			return EmitResult{}, fmt.Errorf("resolve translation for item %d lang %s: %w", itemID, lang, err)
		}

		canParams := &CanTranslateParams{ItemID: itemID, Lang: lang, Text: text}
		if !bus.Dispatch(hooks.PhaseCanTranslate, canParams, hooks.CombineAnd) {
			continue
		}

		devParams := &AddDevCommentParams{ItemID: itemID, Lang: lang}
		bus.Dispatch(hooks.PhaseAddDevComment, devParams, hooks.CombineAnd)

		var devComments []string
		if item.Hint != "" && item.Hint != str.Text {
			devComments = append(devComments, item.Hint)
		}
		devComments = append(devComments, devParams.Comments...)
		if item.Comment != "" {
			devComments = append(devComments, item.Comment)
		}

		flags := []string(nil)
		if fuzzy {
			flags = withFlag(flags, "fuzzy")
		}

		e := Entry{
			TranslatorComment: comment,
			DevComments:       devComments,
			FilePath:          relPath,
			Key:               regenerateKey(str.Text, str.Context),
			Flags:             flags,
			Context:           str.Context,
			MsgID:             str.Text,
			Translations:      splitForEmission(str.Text, text),
		}
		entries = append(entries, e)
	}

	text := render(entries, job, lang)
	newHash := md5.Sum([]byte(text))
	newHashHex := hex.EncodeToString(newHash[:])

	storedHash, hadHash, err := s.CachedProperty(store.TSHashKey(fileID, lang))
	if err != nil {
		return EmitResult{}, fmt.Errorf("read ts hash for file %d lang %s: %w", fileID, lang, err)
	}

	shouldWrite := !optimizationsEnabled || job.RebuildTSFiles || targetMissing || !hadHash || storedHash != newHashHex
	wrote := false
	if shouldWrite {
		if err := atomicfile.Write(path, []byte(text), 0o644); err != nil {
			return EmitResult{}, fmt.Errorf("write ts file %s: %w", path, err)
		}
		wrote = true
		metrics.TSRegenerated()
	} else {
		metrics.TSSkipped()
	}

	if err := s.SetCachedProperty(store.TSCountKey(fileID, lang), strconv.Itoa(len(entries))); err != nil {
		return EmitResult{}, fmt.Errorf("write ts count for file %d lang %s: %w", fileID, lang, err)
	}
	if err := s.SetCachedProperty(store.TSHashKey(fileID, lang), newHashHex); err != nil {
		return EmitResult{}, fmt.Errorf("write ts hash for file %d lang %s: %w", fileID, lang, err)
	}
	if err := s.SetCachedProperty(store.USNKey(fileID, lang), strconv.FormatInt(currentUSN, 10)); err != nil {
		return EmitResult{}, fmt.Errorf("write usn for file %d lang %s: %w", fileID, lang, err)
	}

	return EmitResult{Regenerated: wrote, USNChanged: usnChanged}, nil
}

// highestUSN is the change oracle: max USN over (fileID, lang) and
// every similar-language source configured for lang.
func highestUSN(s *store.CachedStore, fileID int64, lang string, similar map[string][]string) (int64, error) {
	max, err := s.HighestUSNForFileLang(fileID, lang)
	if err != nil {
		return 0, fmt.Errorf("highest usn for file %d lang %s: %w", fileID, lang, err)
	}
	for _, src := range similar[lang] {
		v, err := s.HighestUSNForFileLang(fileID, src)
		if err != nil {
			return 0, fmt.Errorf("highest usn for file %d similar lang %s: %w", fileID, src, err)
		}
		if v > max {
			max = v
		}
	}
	return max, nil
}

// orderedItemIDs reads the file's item list in parse order from its
// items:<file_id> property.
func orderedItemIDs(s *store.CachedStore, fileID int64) ([]int64, error) {
	raw, ok, err := s.CachedProperty(store.ItemsKey(fileID))
	if err != nil {
		return nil, fmt.Errorf("read items list for file %d: %w", fileID, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// splitForEmission divides a resolved translation into plural variants
// matching source's unit-separator-joined msgid, or returns it as a
// single-element slice for a non-plural string.
func splitForEmission(sourceText, translation string) []string {
	if !isPlural(sourceText) {
		return []string{translation}
	}
	if translation == "" {
		return []string{""}
	}
	return strings.Split(translation, unitSeparator)
}

func render(entries []Entry, job config.Job, lang string) string {
	var b strings.Builder

	engineVersion := job.EngineVersion
	if engineVersion == "" {
		engineVersion = "lsync"
	}

	b.WriteString("msgid \"\"\n")
	b.WriteString("msgstr \"\"\n")
	b.WriteString(`"Content-Type: text/plain; charset=UTF-8\n"` + "\n")
	b.WriteString(`"Content-Transfer-Encoding: 8bit\n"` + "\n")
	b.WriteString(fmt.Sprintf(`"Language: %s\n"`+"\n", lang))
	b.WriteString(fmt.Sprintf(`"Generated-By: %s\n"`+"\n", engineVersion))

	for _, e := range entries {
		b.WriteString("\n")
		if e.TranslatorComment != "" {
			for _, line := range strings.Split(e.TranslatorComment, "\n") {
				b.WriteString("# " + line + "\n")
			}
		}
		for _, c := range e.DevComments {
			b.WriteString("#. " + c + "\n")
		}
		if e.FilePath != "" {
			b.WriteString("#: File: " + e.FilePath + "\n")
		}
		b.WriteString("#: ID: " + e.Key + "\n")
		if e.Fuzzy() {
			b.WriteString("#, fuzzy\n")
		}
		if e.Context != "" {
			for _, l := range wrapField("msgctxt", e.Context) {
				b.WriteString(l + "\n")
			}
		}

		if isPlural(e.MsgID) {
			variants := strings.Split(e.MsgID, unitSeparator)
			for _, l := range wrapField("msgid", variants[0]) {
				b.WriteString(l + "\n")
			}
			plural := variants[0]
			if len(variants) > 1 {
				plural = variants[1]
			}
			for _, l := range wrapField("msgid_plural", plural) {
				b.WriteString(l + "\n")
			}
			if len(e.Translations) == 0 {
				b.WriteString(`msgstr[0] ""` + "\n")
			} else {
				for i, t := range e.Translations {
					for _, l := range wrapField(fmt.Sprintf("msgstr[%d]", i), t) {
						b.WriteString(l + "\n")
					}
				}
			}
			continue
		}

		for _, l := range wrapField("msgid", e.MsgID) {
			b.WriteString(l + "\n")
		}
		tr := ""
		if len(e.Translations) > 0 {
			tr = e.Translations[0]
		}
		for _, l := range wrapField("msgstr", tr) {
			b.WriteString(l + "\n")
		}
	}

	return b.String()
}
