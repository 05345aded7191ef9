// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package translate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	kstesting "github.com/kraklabs/lsync/internal/testing"
)

func TestResolveDirectLookup(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	itemID := kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "Enregistrer")

	r := &Resolver{Store: cs, Bus: hooks.NewBus(), Job: config.Job{}}
	text, fuzzy, _, err := r.Resolve(itemID, "fr")
	require.NoError(t, err)
	require.Equal(t, "Enregistrer", text)
	require.False(t, fuzzy)
}

func TestResolveReturnsNothingForSkippedString(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	stringID, _, err := cs.CachedStringID("Hidden", "", false)
	require.NoError(t, err)
	require.NoError(t, cs.SetStringSkip(stringID, true))
	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)
	itemID, _, err := cs.GetItemID(fileID, stringID, false)
	require.NoError(t, err)
	require.NoError(t, cs.UpsertTranslation(itemID, "fr", "Caché", false, ""))

	r := &Resolver{Store: cs, Bus: hooks.NewBus(), Job: config.Job{}}
	text, _, _, err := r.Resolve(itemID, "fr")
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestResolveFuzzyReuseAcrossFiles(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Hello", "", "fr", "Bonjour")
	itemB := kstesting.SeedTranslation(t, cs, "ns", "job1", "b.txt", "Hello", "", "fr", "")

	job := config.Job{Reuse: config.ReuseConfig{Translations: true, AsFuzzyDefault: true}}
	r := &Resolver{Store: cs, Bus: hooks.NewBus(), Job: job}

	text, fuzzy, _, err := r.Resolve(itemB, "fr")
	require.NoError(t, err)
	require.Equal(t, "Bonjour", text)
	require.True(t, fuzzy)

	tr, err := cs.GetTranslation(itemB, "fr")
	require.NoError(t, err)
	require.Equal(t, "Bonjour", tr.Text, "reuse result should be upserted so future runs find it directly")
}

func TestResolveUncertainReuseSkippedByDefault(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Open", "", "fr", "Ouvrir")
	kstesting.SeedTranslation(t, cs, "ns", "job1", "b.txt", "Open", "", "fr", "Déplier")
	itemC := kstesting.SeedTranslation(t, cs, "ns", "job1", "c.txt", "Open", "", "fr", "")

	job := config.Job{Reuse: config.ReuseConfig{Translations: true, Uncertain: false}}
	r := &Resolver{Store: cs, Bus: hooks.NewBus(), Job: job}

	text, _, _, err := r.Resolve(itemC, "fr")
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestResolveSimilarLanguageRecursion(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	itemID := kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "Enregistrer")

	job := config.Job{
		SimilarLanguages:        map[string][]string{"fr-CA": {"fr"}},
		SimilarLanguagesAsFuzzy: map[string]bool{"fr-CA": true},
	}
	r := &Resolver{Store: cs, Bus: hooks.NewBus(), Job: job}

	text, fuzzy, _, err := r.Resolve(itemID, "fr-CA")
	require.NoError(t, err)
	require.Equal(t, "Enregistrer", text)
	require.True(t, fuzzy)

	tr, err := cs.GetTranslation(itemID, "fr-CA")
	require.NoError(t, err)
	require.Nil(t, tr, "similar-language-derived translations must not be written back")
}

func TestResolveUncertainReuseRanksByHintSimilarity(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	itemA := kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Open", "", "fr", "Ouvrir")
	require.NoError(t, cs.SetItemHint(itemA, "menu.file.open"))
	itemB := kstesting.SeedTranslation(t, cs, "ns", "job1", "b.txt", "Open", "", "fr", "Déplier")
	require.NoError(t, cs.SetItemHint(itemB, "toolbar.open"))
	itemC := kstesting.SeedTranslation(t, cs, "ns", "job1", "c.txt", "Open", "", "fr", "")
	require.NoError(t, cs.SetItemHint(itemC, "toolbar.openfile"))

	job := config.Job{Reuse: config.ReuseConfig{Translations: true, Uncertain: true}}
	r := &Resolver{Store: cs, Bus: hooks.NewBus(), Job: job}

	text, _, _, err := r.Resolve(itemC, "fr")
	require.NoError(t, err)
	require.Equal(t, "Déplier", text, "itemC's hint is closer to itemB's than itemA's")
}

func TestResolveGetTranslationPreHookShortCircuits(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	itemID := kstesting.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Save", "", "fr", "Enregistrer")

	bus := hooks.NewBus()
	bus.RegisterText(hooks.PhaseGetTranslationPre, func(params any) (string, bool) {
		return "from-pre-hook", true
	})

	r := &Resolver{Store: cs, Bus: bus, Job: config.Job{}}
	text, _, _, err := r.Resolve(itemID, "fr")
	require.NoError(t, err)
	require.Equal(t, "from-pre-hook", text)
}
