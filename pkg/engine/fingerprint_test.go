// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintStableUnderReordering(t *testing.T) {
	a := testJob(".")
	a.Languages = []string{"fr", "de"}
	b := testJob(".")
	b.Languages = []string{"de", "fr"}

	require.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintChangesWithReusePolicy(t *testing.T) {
	a := testJob(".")
	b := testJob(".")
	b.Reuse.Uncertain = !a.Reuse.Uncertain

	require.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestOptimizationsEnabledRoundTrip(t *testing.T) {
	cs := openTestStore(t)
	job := testJob(".")
	job.EngineVersion = "1.0.0"
	job.PluginVersion = "1.0.0"

	enabled, err := OptimizationsEnabled(cs, job)
	require.NoError(t, err)
	require.False(t, enabled, "no fingerprint stored yet")

	require.NoError(t, PersistFingerprint(cs, job))

	enabled, err = OptimizationsEnabled(cs, job)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestOptimizationsDisabledOnConfigChange(t *testing.T) {
	cs := openTestStore(t)
	job := testJob(".")
	job.EngineVersion = "1.0.0"
	job.PluginVersion = "1.0.0"
	require.NoError(t, PersistFingerprint(cs, job))

	job.Languages = append(job.Languages, "ja")
	enabled, err := OptimizationsEnabled(cs, job)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestOptimizationsDisabledWhenJobForcesIt(t *testing.T) {
	cs := openTestStore(t)
	job := testJob(".")
	job.DisableOptimizations = true

	enabled, err := OptimizationsEnabled(cs, job)
	require.NoError(t, err)
	require.False(t, enabled)
}
