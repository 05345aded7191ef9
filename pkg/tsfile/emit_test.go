// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/pkg/store"

	kstesting "github.com/kraklabs/lsync/internal/testing"
)

func noopResolver(itemID int64, lang string) (string, bool, string, error) {
	return "translated", false, "", nil
}

func TestEmitWritesNewTSFile(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "")
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)
	stringID, _, err := cs.CachedStringID("Save", "", false)
	require.NoError(t, err)
	itemID, _, err := cs.GetItemID(fileID, stringID, false)
	require.NoError(t, err)
	require.NoError(t, cs.SetCachedProperty(store.ItemsKey(fileID), strconv.FormatInt(itemID, 10)))

	path := filepath.Join(t.TempDir(), "fr.ts")
	bus := hooks.NewBus()
	job := config.Job{EngineVersion: "lsync-test"}

	res, err := Emit(cs, nil, bus, job, noopResolver, fileID, "fr", "a.txt", path, true)
	require.NoError(t, err)
	require.True(t, res.Regenerated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.True(t, strings.Contains(content, `msgid "Save"`))
	require.True(t, strings.Contains(content, `msgstr "translated"`))
	require.True(t, strings.Contains(content, "#: File: a.txt"))
}

func TestEmitSkipsWhenUSNUnchanged(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "")
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)
	stringID, _, err := cs.CachedStringID("Save", "", false)
	require.NoError(t, err)
	itemID, _, err := cs.GetItemID(fileID, stringID, false)
	require.NoError(t, err)
	require.NoError(t, cs.SetCachedProperty(store.ItemsKey(fileID), strconv.FormatInt(itemID, 10)))

	path := filepath.Join(t.TempDir(), "fr.ts")
	bus := hooks.NewBus()
	job := config.Job{}

	_, err = Emit(cs, nil, bus, job, noopResolver, fileID, "fr", "a.txt", path, true)
	require.NoError(t, err)

	res, err := Emit(cs, nil, bus, job, noopResolver, fileID, "fr", "a.txt", path, true)
	require.NoError(t, err)
	require.False(t, res.Regenerated)
	require.False(t, res.USNChanged)
}

func TestEmitSkipsStringWithSkipFlag(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	stringID, _, err := cs.CachedStringID("Hidden", "", false)
	require.NoError(t, err)
	require.NoError(t, cs.SetStringSkip(stringID, true))
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)
	itemID, _, err := cs.GetItemID(fileID, stringID, false)
	require.NoError(t, err)
	require.NoError(t, cs.SetCachedProperty(store.ItemsKey(fileID), strconv.FormatInt(itemID, 10)))

	path := filepath.Join(t.TempDir(), "fr.ts")
	bus := hooks.NewBus()
	job := config.Job{}

	res, err := Emit(cs, nil, bus, job, noopResolver, fileID, "fr", "a.txt", path, true)
	require.NoError(t, err)
	require.True(t, res.Regenerated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(data), "Hidden"))
}
