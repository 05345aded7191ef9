// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package textnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestNormalizePlainASCII(t *testing.T) {
	text, err := Normalize([]byte("hello\r\nworld"))
	require.NoError(t, err)
	require.Equal(t, "hello\nworld", text)
}

func TestNormalizeStripsUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	text, err := Normalize(data)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestNormalizeDecodesUTF16LE(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	data, err := enc.NewEncoder().Bytes([]byte("hi"))
	require.NoError(t, err)

	text, err := Normalize(data)
	require.NoError(t, err)
	require.Equal(t, "hi", text)
}

func TestNormalizeDecodesXMLEncodingAttr(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="iso-8859-1"?><a>caf\xe9</a>`)
	text, err := Normalize(data)
	require.NoError(t, err)
	require.Contains(t, text, "<a>")
}
