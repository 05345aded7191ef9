// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/text/unicode/norm"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/internal/metrics"
	"github.com/kraklabs/lsync/pkg/parser"
	"github.com/kraklabs/lsync/pkg/store"
)

// CanExtractParams is passed to the can_extract hook, which may veto
// creating a String/Item for this occurrence before it's persisted.
type CanExtractParams struct {
	FileID  int64
	Text    string
	Context string
	Hint    string
	Flags   []string
}

// IngestFile runs a file's content through p in extraction mode,
// disambiguating duplicate (text, context) pairs within the file and
// resolving each occurrence to a store Item. It returns the ordered
// list of Item IDs found in this pass, the content hash, and size —
// the caller persists these as the file's properties right after a
// successful ingest.
func IngestFile(s *store.CachedStore, logger *slog.Logger, bus *hooks.Bus, job config.Job, fileID int64, p parser.Parser, content []byte) (itemIDs []int64, contentHash string, size int64, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = hooks.NewBus()
	}

	sum := md5.Sum(content)
	contentHash = hex.EncodeToString(sum[:])
	size = int64(len(content))

	seenKeys := map[string]bool{}
	seenSourceKeys := map[string]bool{}
	var ingestErr error

	_, parseErr := p.Parse(content, "", func(occ parser.Occurrence) (string, error) {
		occ, dropped := NormalizeOccurrence(occ, job.NormalizeStrings)
		if dropped {
			return "", nil
		}

		context := Disambiguate(occ, seenKeys, seenSourceKeys, logger)

		canParams := &CanExtractParams{FileID: fileID, Text: occ.Text, Context: context, Hint: occ.Hint, Flags: occ.Flags}
		if !bus.Dispatch(hooks.PhaseCanExtract, canParams, hooks.CombineAnd) {
			return "", nil
		}

		stringID, _, e := s.CachedStringID(occ.Text, context, false)
		if e != nil {
			ingestErr = fmt.Errorf("resolve string %q: %w", occ.Text, e)
			return "", ingestErr
		}

		existingID, existed, e := s.GetItemID(fileID, stringID, true)
		if e != nil {
			ingestErr = fmt.Errorf("check item for string %d: %w", stringID, e)
			return "", ingestErr
		}
		itemID := existingID
		if !existed {
			itemID, _, e = s.GetItemID(fileID, stringID, false)
			if e != nil {
				ingestErr = fmt.Errorf("resolve item for string %d: %w", stringID, e)
				return "", ingestErr
			}
			metrics.ItemCreated()
		}

		item, e := s.GetItem(itemID)
		if e != nil {
			ingestErr = fmt.Errorf("load item %d: %w", itemID, e)
			return "", ingestErr
		}
		if item.Hint != occ.Hint {
			if e := s.SetItemHint(itemID, occ.Hint); e != nil {
				ingestErr = fmt.Errorf("update hint for item %d: %w", itemID, e)
				return "", ingestErr
			}
		}

		itemIDs = append(itemIDs, itemID)
		return "", nil
	})
	if parseErr != nil {
		return nil, "", 0, fmt.Errorf("parse file %d: %w", fileID, parseErr)
	}
	if ingestErr != nil {
		return nil, "", 0, ingestErr
	}

	return itemIDs, contentHash, size, nil
}

// NormalizeOccurrence applies the extraction-time normalization steps
// to occ before disambiguation and string lookup: whitespace
// normalization (gated by normalizeStrings and occ.Flags'
// "normalize"/"dont-normalize"), the empty-string drop, and NFC on any
// field containing a non-ASCII byte. dropped is true iff the string
// normalized to empty and must not become a String/Item.
func NormalizeOccurrence(occ parser.Occurrence, normalizeStrings bool) (result parser.Occurrence, dropped bool) {
	if shouldNormalizeWhitespace(normalizeStrings, occ.Flags) {
		occ.Text = normalizeWhitespace(occ.Text)
	}
	if occ.Text == "" {
		return occ, true
	}
	occ.Text = nfcIfNeeded(occ.Text)
	occ.Context = nfcIfNeeded(occ.Context)
	return occ, false
}

func shouldNormalizeWhitespace(normalizeStrings bool, flags []string) bool {
	for _, f := range flags {
		if f == "normalize" {
			return true
		}
	}
	for _, f := range flags {
		if f == "dont-normalize" {
			return false
		}
	}
	return normalizeStrings
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// nfcIfNeeded applies Unicode NFC only when s contains a non-ASCII
// byte — the common case is pure ASCII, and norm.NFC.String walks the
// whole string even when it would be a no-op.
func nfcIfNeeded(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return norm.NFC.String(s)
		}
	}
	return s
}

// Disambiguate computes key = MD5(text \x00 context) for occ and, if
// that key already occurred in this file, resolves it in order:
//  1. occ.SourceKey, if non-empty, becomes the context.
//  2. else occ.Hint, if non-empty, becomes the context.
//  3. else ".1", ".2", ... is appended to the context base until the
//     key is unique within the file.
//
// Warns when a non-empty SourceKey collides with one already seen in
// this file, since that signals two distinct occurrences sharing an
// identifier meant to be unique. Exported so pkg/localize's rendering
// pass can resolve the exact same Item a prior extraction pass created
// for each occurrence.
func Disambiguate(occ parser.Occurrence, seenKeys, seenSourceKeys map[string]bool, logger *slog.Logger) string {
	context := occ.Context
	key := keyFor(occ.Text, context)

	if !seenKeys[key] {
		seenKeys[key] = true
		if occ.SourceKey != "" {
			if seenSourceKeys[occ.SourceKey] {
				logger.Warn("ingest.source_key.collision", "source_key", occ.SourceKey, "text", occ.Text)
			}
			seenSourceKeys[occ.SourceKey] = true
		}
		return context
	}

	if occ.SourceKey != "" {
		context = occ.SourceKey
	} else if occ.Hint != "" {
		context = occ.Hint
	}

	key = keyFor(occ.Text, context)
	if !seenKeys[key] {
		seenKeys[key] = true
		if occ.SourceKey != "" {
			if seenSourceKeys[occ.SourceKey] {
				logger.Warn("ingest.source_key.collision", "source_key", occ.SourceKey, "text", occ.Text)
			}
			seenSourceKeys[occ.SourceKey] = true
		}
		return context
	}

	base := context
	for i := 1; ; i++ {
		candidate := base + "." + strconv.Itoa(i)
		key = keyFor(occ.Text, candidate)
		if !seenKeys[key] {
			seenKeys[key] = true
			return candidate
		}
	}
}

func keyFor(text, context string) string {
	sum := md5.Sum([]byte(text + "\x00" + context))
	return hex.EncodeToString(sum[:])
}

// persistFileProperties writes the properties the scan/rename stage
// of the next run depends on: content hash, size, and the ordered
// item-id list for the file.
func persistFileProperties(s *store.CachedStore, fileID int64, contentHash string, size int64, itemIDs []int64) error {
	if err := s.SetCachedProperty(store.SourceHashKey(fileID), contentHash); err != nil {
		return fmt.Errorf("write source hash for file %d: %w", fileID, err)
	}
	if err := s.SetCachedProperty(store.SizeKey(fileID), strconv.FormatInt(size, 10)); err != nil {
		return fmt.Errorf("write size for file %d: %w", fileID, err)
	}
	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	if err := s.SetCachedProperty(store.ItemsKey(fileID), strings.Join(ids, ",")); err != nil {
		return fmt.Errorf("write items list for file %d: %w", fileID, err)
	}
	return nil
}

// ReconcileItemOrphans compares the item IDs found during this ingest
// pass against the file's previously persisted item list, orphaning
// items no longer present and un-orphaning ones that reappeared.
func ReconcileItemOrphans(s *store.CachedStore, fileID int64, newItemIDs []int64) error {
	prevStr, ok, err := s.CachedProperty(store.ItemsKey(fileID))
	if err != nil {
		return fmt.Errorf("read previous items list for file %d: %w", fileID, err)
	}

	prev := roaring.New()
	if ok && prevStr != "" {
		for _, part := range strings.Split(prevStr, ",") {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				continue
			}
			prev.Add(uint32(id))
		}
	}

	current := roaring.New()
	for _, id := range newItemIDs {
		current.Add(uint32(id))
	}

	orphaned := roaring.AndNot(prev, current)
	it := orphaned.Iterator()
	for it.HasNext() {
		itemID := int64(it.Next())
		if err := s.SetItemOrphaned(itemID, true); err != nil {
			return fmt.Errorf("orphan item %d: %w", itemID, err)
		}
		metrics.ItemOrphaned()
	}

	resurrected := roaring.AndNot(current, prev)
	it = resurrected.Iterator()
	for it.HasNext() {
		itemID := int64(it.Next())
		if err := s.SetItemOrphaned(itemID, false); err != nil {
			return fmt.Errorf("un-orphan item %d: %w", itemID, err)
		}
	}

	return nil
}
