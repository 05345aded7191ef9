// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsfile

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/lsync/internal/hooks"
	kstesting "github.com/kraklabs/lsync/internal/testing"
	"github.com/kraklabs/lsync/pkg/store"
)

func writeTSFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fr.ts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestAppliesNewTranslation(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	itemID := kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "")

	path := writeTSFile(t, `msgid ""
msgstr ""

#: File: a.txt
#: ID: `+regenerateKey("Save", "")+`
msgid "Save"
msgstr "Enregistrer"
`)

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	bus := hooks.NewBus()
	require.NoError(t, Ingest(cs, nil, bus, fileID, "fr", path))

	tr, err := cs.GetTranslation(itemID, "fr")
	require.NoError(t, err)
	require.Equal(t, "Enregistrer", tr.Text)
}

func TestIngestDropsBlockWithUnknownString(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	path := writeTSFile(t, `msgid ""
msgstr ""

#: File: a.txt
#: ID: `+regenerateKey("NeverParsed", "")+`
msgid "NeverParsed"
msgstr "Jamais"
`)

	bus := hooks.NewBus()
	require.NoError(t, Ingest(cs, nil, bus, fileID, "fr", path))
}

func TestIngestDropsBlockOnKeyMismatch(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	itemID := kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "")
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	path := writeTSFile(t, `msgid ""
msgstr ""

#: File: a.txt
#: ID: deadbeef
msgid "Save"
msgstr "Enregistrer"
`)

	bus := hooks.NewBus()
	require.NoError(t, Ingest(cs, nil, bus, fileID, "fr", path))

	tr, err := cs.GetTranslation(itemID, "fr")
	require.NoError(t, err)
	require.Nil(t, tr)
}

func TestIngestSkipsUnchangedFile(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	content := `msgid ""
msgstr ""

#: File: a.txt
#: ID: ` + regenerateKey("Unknown", "") + `
msgid "Unknown"
msgstr "Inconnu"
`
	path := writeTSFile(t, content)

	sum := md5.Sum([]byte(content))
	require.NoError(t, cs.SetCachedProperty(store.TSHashKey(fileID, "fr"), hex.EncodeToString(sum[:])))

	bus := hooks.NewBus()
	require.NoError(t, Ingest(cs, nil, bus, fileID, "fr", path))
}

func TestIngestOneShotMergeFlagIsIgnoredOnce(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	itemID := kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "old")
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	tr, err := cs.GetTranslation(itemID, "fr")
	require.NoError(t, err)
	require.NoError(t, cs.SetTranslationMerge(tr.ID))
	cs.InvalidateTranslation(itemID, "fr")

	path := writeTSFile(t, `msgid ""
msgstr ""

#: File: a.txt
#: ID: `+regenerateKey("Save", "")+`
msgid "Save"
msgstr "Enregistrer"
`)

	bus := hooks.NewBus()
	require.NoError(t, Ingest(cs, nil, bus, fileID, "fr", path))

	got, err := cs.GetTranslation(itemID, "fr")
	require.NoError(t, err)
	require.Equal(t, "old", got.Text, "merge flag should cause this update to be ignored once")
	require.False(t, got.Merge)
}
