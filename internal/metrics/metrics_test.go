// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	require.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestCountersIncrement(t *testing.T) {
	Init()

	before := testutil.ToFloat64(m.filesAdded)
	FileAdded()
	require.Equal(t, before+1, testutil.ToFloat64(m.filesAdded))

	require.NotPanics(t, func() {
		USNBump()
		ReuseApplied()
		TSRegenerated()
		LocalizedWritten()
		ObserveScan(0.01)
	})
}
