// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package fswalk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestWalkReturnsSortedRelativePaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.po", "x")
	writeFile(t, root, "a/c.po", "x")

	paths, err := Walk(root, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"a/c.po", "b.po"}, paths)
}

func TestWalkExcludesGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "x")
	writeFile(t, root, "vendor/dep/b.go", "x")

	paths, err := Walk(root, Options{Exclude: []string{"vendor/**"}})
	require.NoError(t, err)
	require.Equal(t, []string{"src/a.go"}, paths)
}

func TestWalkIncludeRestrictsToMatching(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.po", "x")
	writeFile(t, root, "b.txt", "x")

	paths, err := Walk(root, Options{Include: []string{"*.po"}})
	require.NoError(t, err)
	require.Equal(t, []string{"a.po"}, paths)
}

func TestWalkSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.po", "abc")
	writeFile(t, root, "big.po", "abcdefghij")

	paths, err := Walk(root, Options{MaxFileSize: 5})
	require.NoError(t, err)
	require.Equal(t, []string{"small.po"}, paths)
}

func TestWalkSkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "text.po", "hello")
	full := filepath.Join(root, "bin.dat")
	require.NoError(t, os.WriteFile(full, []byte{0x00, 0x01, 0x02}, 0644))

	paths, err := Walk(root, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"text.po"}, paths)
}
