// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "translations.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStringIdentity(t *testing.T) {
	s := openTestStore(t)

	id1, ok, err := s.GetStringID("Hello", "", false)
	require.NoError(t, err)
	require.True(t, ok)

	id2, ok, err := s.GetStringID("Hello", "", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id1, id2, "same (text, context) must resolve to the same id")

	id3, ok, err := s.GetStringID("Hello", "toolbar.save", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, id1, id3, "distinct context must be a distinct String")

	_, ok, err = s.GetStringID("Nope", "", true)
	require.NoError(t, err)
	require.False(t, ok, "nocreate must not create a missing row")
}

func TestFileRenamePreservesItemsAndTranslations(t *testing.T) {
	s := openTestStore(t)

	fileID, _, err := s.GetFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	stringID, _, err := s.GetStringID("Hello", "", false)
	require.NoError(t, err)

	itemID, _, err := s.GetItemID(fileID, stringID, false)
	require.NoError(t, err)

	require.NoError(t, s.UpsertTranslation(itemID, "fr", "Bonjour", false, ""))

	require.NoError(t, s.UpdateFilePath(fileID, "b.txt"))

	f, err := s.GetFile(fileID)
	require.NoError(t, err)
	require.Equal(t, "b.txt", f.RelPath)

	tr, err := s.GetTranslation(itemID, "fr")
	require.NoError(t, err)
	require.NotNil(t, tr)
	require.Equal(t, "Bonjour", tr.Text)
}

func TestHighestUSNMonotonic(t *testing.T) {
	s := openTestStore(t)

	fileID, _, err := s.GetFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)
	stringID, _, err := s.GetStringID("Hello", "", false)
	require.NoError(t, err)
	itemID, _, err := s.GetItemID(fileID, stringID, false)
	require.NoError(t, err)

	before, err := s.HighestUSNForFileLang(fileID, "fr")
	require.NoError(t, err)

	require.NoError(t, s.UpsertTranslation(itemID, "fr", "Bonjour", false, ""))

	after, err := s.HighestUSNForFileLang(fileID, "fr")
	require.NoError(t, err)
	require.Greater(t, after, before)
}

func TestUpsertKeepsFuzzyOnEmptyTranslation(t *testing.T) {
	s := openTestStore(t)

	fileID, _, err := s.GetFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)
	stringID, _, err := s.GetStringID("Hello", "", false)
	require.NoError(t, err)
	itemID, _, err := s.GetItemID(fileID, stringID, false)
	require.NoError(t, err)

	require.NoError(t, s.UpsertTranslation(itemID, "fr", "", true, ""))
	tr, err := s.GetTranslation(itemID, "fr")
	require.NoError(t, err)
	require.True(t, tr.Fuzzy, "store itself does not enforce the empty+fuzzy coercion; that is the ingester's job")
}

func TestFindBestTranslationReportsMultipleVariants(t *testing.T) {
	s := openTestStore(t)

	stringID, _, err := s.GetStringID("Open", "", false)
	require.NoError(t, err)

	fileA, _, err := s.GetFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)
	itemA, _, err := s.GetItemID(fileA, stringID, false)
	require.NoError(t, err)
	require.NoError(t, s.UpsertTranslation(itemA, "fr", "Ouvrir", false, ""))

	fileB, _, err := s.GetFileID("ns", "job1", "b.txt", false)
	require.NoError(t, err)
	itemB, _, err := s.GetItemID(fileB, stringID, false)
	require.NoError(t, err)
	require.NoError(t, s.UpsertTranslation(itemB, "fr", "Déplier", false, ""))

	fileC, _, err := s.GetFileID("ns", "job1", "c.txt", false)
	require.NoError(t, err)

	text, _, _, multiple, ok, err := s.FindBestTranslation("ns", stringID, "fr", fileC, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, multiple)
	require.NotEmpty(t, text)
}

func TestJoinSplitIDsRoundTrip(t *testing.T) {
	ids := []int64{3, 1, 42}
	s := JoinIDs(ids)
	got, err := SplitIDs(s)
	require.NoError(t, err)
	require.Equal(t, ids, got)

	empty, err := SplitIDs("")
	require.NoError(t, err)
	require.Empty(t, empty)
}
