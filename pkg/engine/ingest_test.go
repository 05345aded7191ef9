// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"golang.org/x/text/unicode/norm"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/pkg/parser"
	"github.com/kraklabs/lsync/pkg/parser/plaintext"
)

func TestIngestFileDisambiguatesBySourceKey(t *testing.T) {
	cs := openTestStore(t)
	src := []byte("toolbar.save = \"Save\"\nmenu.save = \"Save\"\n")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	itemIDs, hash, size, err := IngestFile(cs, nil, nil, config.Job{}, fileID, plaintext.New(), src)
	require.NoError(t, err)
	require.Len(t, itemIDs, 2)
	require.NotEmpty(t, hash)
	require.Equal(t, int64(len(src)), size)

	_, ok1, err := cs.GetStringID("Save", "toolbar.save", true)
	require.NoError(t, err)
	require.True(t, ok1)
	_, ok2, err := cs.GetStringID("Save", "menu.save", true)
	require.NoError(t, err)
	require.True(t, ok2)
}

func TestIngestFileUpdatesItemHint(t *testing.T) {
	cs := openTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	stringID, _, err := cs.CachedStringID("Hello", "", false)
	require.NoError(t, err)
	itemID, _, err := cs.GetItemID(fileID, stringID, false)
	require.NoError(t, err)
	require.NoError(t, cs.SetItemHint(itemID, "old-hint"))

	var got []parser.Occurrence
	fakeParser := fakeParserFunc(func(buf []byte, lang string, cb parser.Callback) ([]byte, error) {
		occ := parser.Occurrence{Text: "Hello", Hint: "new-hint"}
		got = append(got, occ)
		_, err := cb(occ)
		return nil, err
	})

	_, _, _, err = IngestFile(cs, nil, nil, config.Job{}, fileID, fakeParser, []byte("irrelevant"))
	require.NoError(t, err)

	item, err := cs.GetItem(itemID)
	require.NoError(t, err)
	require.Equal(t, "new-hint", item.Hint)
}

func TestIngestFileNFCNormalizesNonASCIIBeforeKeying(t *testing.T) {
	cs := openTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	decomposed := "Cafe\u0301" // "Café" spelled as e + combining acute accent (NFD)
	fakeParser := fakeParserFunc(func(buf []byte, lang string, cb parser.Callback) ([]byte, error) {
		_, err := cb(parser.Occurrence{Text: decomposed})
		return nil, err
	})

	itemIDs, _, _, err := IngestFile(cs, nil, nil, config.Job{}, fileID, fakeParser, []byte("irrelevant"))
	require.NoError(t, err)
	require.Len(t, itemIDs, 1)

	composed := norm.NFC.String(decomposed)
	_, ok, err := cs.GetStringID(composed, "", true)
	require.NoError(t, err)
	require.True(t, ok, "string must be keyed on its NFC-normalized form")

	_, ok, err = cs.GetStringID(decomposed, "", true)
	require.NoError(t, err)
	require.False(t, ok, "the raw NFD form must not be the stored key")
}

func TestIngestFileDropsEmptyStringsAfterWhitespaceNormalization(t *testing.T) {
	cs := openTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	fakeParser := fakeParserFunc(func(buf []byte, lang string, cb parser.Callback) ([]byte, error) {
		if _, err := cb(parser.Occurrence{Text: "   "}); err != nil {
			return nil, err
		}
		_, err := cb(parser.Occurrence{Text: "kept"})
		return nil, err
	})

	job := config.Job{NormalizeStrings: true}
	itemIDs, _, _, err := IngestFile(cs, nil, nil, job, fileID, fakeParser, []byte("irrelevant"))
	require.NoError(t, err)
	require.Len(t, itemIDs, 1)
}

func TestIngestFileNormalizeStringsCollapsesWhitespaceUnlessFlagged(t *testing.T) {
	cs := openTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	fakeParser := fakeParserFunc(func(buf []byte, lang string, cb parser.Callback) ([]byte, error) {
		if _, err := cb(parser.Occurrence{Text: "hello   world"}); err != nil {
			return nil, err
		}
		_, err := cb(parser.Occurrence{Text: "kept   as-is", Flags: []string{"dont-normalize"}})
		return nil, err
	})

	job := config.Job{NormalizeStrings: true}
	_, _, _, err = IngestFile(cs, nil, nil, job, fileID, fakeParser, []byte("irrelevant"))
	require.NoError(t, err)

	_, ok, err := cs.GetStringID("hello world", "", true)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = cs.GetStringID("kept   as-is", "", true)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIngestFileCanExtractHookVetoesItemCreation(t *testing.T) {
	cs := openTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	fakeParser := fakeParserFunc(func(buf []byte, lang string, cb parser.Callback) ([]byte, error) {
		if _, err := cb(parser.Occurrence{Text: "blocked"}); err != nil {
			return nil, err
		}
		_, err := cb(parser.Occurrence{Text: "allowed"})
		return nil, err
	})

	bus := hooks.NewBus()
	bus.Register(hooks.PhaseCanExtract, func(params any) bool {
		p := params.(*CanExtractParams)
		return p.Text != "blocked"
	})

	itemIDs, _, _, err := IngestFile(cs, nil, bus, config.Job{}, fileID, fakeParser, []byte("irrelevant"))
	require.NoError(t, err)
	require.Len(t, itemIDs, 1)

	_, ok, err := cs.GetStringID("blocked", "", true)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = cs.GetStringID("allowed", "", true)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReconcileItemOrphansMarksMissingAndResurrectsSeen(t *testing.T) {
	cs := openTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	s1, _, err := cs.CachedStringID("A", "", false)
	require.NoError(t, err)
	s2, _, err := cs.CachedStringID("B", "", false)
	require.NoError(t, err)
	i1, _, err := cs.GetItemID(fileID, s1, false)
	require.NoError(t, err)
	i2, _, err := cs.GetItemID(fileID, s2, false)
	require.NoError(t, err)

	require.NoError(t, persistFileProperties(cs, fileID, "hash1", 10, []int64{i1, i2}))

	// Next run only finds i1.
	require.NoError(t, ReconcileItemOrphans(cs, fileID, []int64{i1}))

	item2, err := cs.GetItem(i2)
	require.NoError(t, err)
	require.True(t, item2.Orphaned)

	item1, err := cs.GetItem(i1)
	require.NoError(t, err)
	require.False(t, item1.Orphaned)
}

type fakeParserFunc func([]byte, string, parser.Callback) ([]byte, error)

func (f fakeParserFunc) Parse(buf []byte, lang string, cb parser.Callback) ([]byte, error) {
	return f(buf, lang, cb)
}

var _ parser.Parser = fakeParserFunc(nil)
