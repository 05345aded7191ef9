// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package localize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/pkg/engine"
	"github.com/kraklabs/lsync/pkg/parser/plaintext"

	kstesting "github.com/kraklabs/lsync/internal/testing"
)

func staticResolver(text string) Resolver {
	return func(itemID int64, lang string) (string, bool, string, error) {
		return text, false, "", nil
	}
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEmitRendersAndWritesNewFile(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", `greeting = "Hello"`+"\n")
	out := filepath.Join(dir, "a.fr.txt")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	bus := hooks.NewBus()
	job := config.Job{JobID: "job1"}

	res, err := Emit(cs, nil, bus, job, staticResolver("Bonjour"), plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)
	require.True(t, res.Rendered)
	require.True(t, res.Written)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"Bonjour"`))
}

func TestEmitResolvesNonASCIISourceStringExtractedWithNFC(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	dir := t.TempDir()
	// "café" written with a combining acute accent (NFD form).
	decomposed := "cafe\u0301" // "cafe" + combining acute accent (NFD)
	src := writeSource(t, dir, "a.txt", `greeting = "`+decomposed+`"`+"\n")
	out := filepath.Join(dir, "a.fr.txt")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	job := config.Job{JobID: "job1"}

	// Simulate a prior extraction pass storing the NFC-normalized key.
	_, _, _, err = engine.IngestFile(cs, nil, nil, job, fileID, plaintext.New(), []byte(`greeting = "`+decomposed+`"`+"\n"))
	require.NoError(t, err)

	bus := hooks.NewBus()
	res, err := Emit(cs, nil, bus, job, staticResolver("Bonjour"), plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)
	require.True(t, res.Written)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"Bonjour"`), "non-ASCII source string must resolve via its NFC-keyed item")
}

func TestEmitSkipsWhenUnchanged(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", `greeting = "Hello"`+"\n")
	out := filepath.Join(dir, "a.fr.txt")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	bus := hooks.NewBus()
	job := config.Job{JobID: "job1"}
	resolver := staticResolver("Bonjour")

	_, err = Emit(cs, nil, bus, job, resolver, plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)

	res, err := Emit(cs, nil, bus, job, resolver, plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)
	require.False(t, res.Rendered)
	require.False(t, res.Written)
}

func TestEmitForceRenderBypassesSkipGate(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", `greeting = "Hello"`+"\n")
	out := filepath.Join(dir, "a.fr.txt")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	bus := hooks.NewBus()
	job := config.Job{JobID: "job1"}
	resolver := staticResolver("Bonjour")

	_, err = Emit(cs, nil, bus, job, resolver, plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)

	res, err := Emit(cs, nil, bus, job, resolver, plaintext.New(), fileID, "fr", src, out, true, true)
	require.NoError(t, err)
	require.True(t, res.Rendered)
}

func TestEmitFallsBackToOriginalTextWhenUnresolved(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", `greeting = "Hello"`+"\n")
	out := filepath.Join(dir, "a.fr.txt")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	bus := hooks.NewBus()
	job := config.Job{JobID: "job1"}

	_, err = Emit(cs, nil, bus, job, staticResolver(""), plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"Hello"`))
}

func TestEmitAppliesRewriteTranslationHook(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", `greeting = "Hello"`+"\n")
	out := filepath.Join(dir, "a.fr.txt")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	bus := hooks.NewBus()
	bus.Register(hooks.PhaseRewriteTranslation, func(params any) bool {
		p := params.(*RewriteTranslationParams)
		p.Text = p.Text + "!"
		return true
	})
	job := config.Job{JobID: "job1"}

	_, err = Emit(cs, nil, bus, job, staticResolver("Bonjour"), plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"Bonjour!"`))
}

func TestEmitEncodesUTF16LE(t *testing.T) {
	cs := kstesting.SetupTestStore(t)
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", `greeting = "Hello"`+"\n")
	out := filepath.Join(dir, "a.fr.txt")

	fileID, _, err := cs.CachedFileID("ns", "job1", "a.txt", false)
	require.NoError(t, err)

	bus := hooks.NewBus()
	job := config.Job{JobID: "job1", OutputEncoding: "UTF-16LE", OutputBOM: true}

	_, err = Emit(cs, nil, bus, job, staticResolver("Bonjour"), plaintext.New(), fileID, "fr", src, out, true, false)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, byte(0xFF), data[0])
	require.Equal(t, byte(0xFE), data[1])
}

func TestPadWidthParsesFlag(t *testing.T) {
	w, ok := padWidth([]string{"c-format", "pad:10"})
	require.True(t, ok)
	require.Equal(t, 10, w)

	_, ok = padWidth([]string{"c-format"})
	require.False(t, ok)
}

func TestPadToRightPadsWithSpaces(t *testing.T) {
	require.Equal(t, "abc       ", padTo("abc", 10))
	require.Equal(t, "abcdefghij", padTo("abcdefghij", 5))
}

func TestEncodeJavaEscapesNonASCII(t *testing.T) {
	out, err := encode([]byte("café"), "JAVA", false)
	require.NoError(t, err)
	require.Equal(t, "caf\\u00e9", string(out))
}

func TestEncodeUTF8WithBOM(t *testing.T) {
	out, err := encode([]byte("hi"), "UTF-8", true)
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, utf8BOM...), []byte("hi")...), out)
}

func TestEncodeUTF32BE(t *testing.T) {
	out, err := encode([]byte("A"), "UTF-32BE", false)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 'A'}, out)
}
