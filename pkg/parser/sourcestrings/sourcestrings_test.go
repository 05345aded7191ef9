// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package sourcestrings

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/lsync/pkg/parser"
)

func TestParseExtractsGoMarkerCalls(t *testing.T) {
	src := []byte(`package main

func run() {
	msg := T("Save file")
	other := _("Open file")
	fmt.Println(msg, other)
}
`)

	var found []parser.Occurrence
	_, err := NewGo().Parse(src, "", func(occ parser.Occurrence) (string, error) {
		found = append(found, occ)
		return "", nil
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "Save file", found[0].Text)
	require.Equal(t, "T", found[0].Hint)
	require.Equal(t, "Open file", found[1].Text)
	require.Equal(t, "_", found[1].Hint)
}

func TestParseIgnoresNonMarkerCalls(t *testing.T) {
	src := []byte(`package main

func run() {
	fmt.Println("not a marker")
}
`)

	var found []parser.Occurrence
	_, err := NewGo().Parse(src, "", func(occ parser.Occurrence) (string, error) {
		found = append(found, occ)
		return "", nil
	})
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestParseRenderingModeSplicesTranslation(t *testing.T) {
	src := []byte(`package main

func run() {
	msg := T("Save file")
	_ = msg
}
`)

	rendered, err := NewGo().Parse(src, "fr", func(occ parser.Occurrence) (string, error) {
		require.Equal(t, "Save file", occ.Text)
		return "Enregistrer le fichier", nil
	})
	require.NoError(t, err)
	require.Contains(t, string(rendered), `T("Enregistrer le fichier")`)
}
