// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package textnorm implements the engine's one normalization rule for
// raw file bytes: detect an encoding (BOM first, then an XML
// encoding="..." declaration, else ASCII/UTF-8), decode to text,
// collapse CRLF to LF. Every content hash in the engine — source
// files, localized output — is computed over this normalized form so
// a file re-saved with a different BOM or line-ending convention
// doesn't spuriously look changed.
package textnorm

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf32BEBOM = []byte{0x00, 0x00, 0xFE, 0xFF}
	utf32LEBOM = []byte{0xFF, 0xFE, 0x00, 0x00}
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}
)

var xmlEncodingAttr = regexp.MustCompile(`(?i)<\?xml[^>]*\bencoding\s*=\s*["']([^"']+)["']`)

// Normalize decodes data to text using the engine's encoding-detection
// order, then rewrites CRLF line endings to LF.
func Normalize(data []byte) (string, error) {
	text, err := decode(data)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}

func decode(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, utf32LEBOM):
		return decodeUTF32(data[len(utf32LEBOM):], false)
	case bytes.HasPrefix(data, utf32BEBOM):
		return decodeUTF32(data[len(utf32BEBOM):], true)
	case bytes.HasPrefix(data, utf8BOM):
		return string(data[len(utf8BOM):]), nil
	case bytes.HasPrefix(data, utf16LEBOM):
		return decodeUTF16(data[len(utf16LEBOM):], unicode.LittleEndian)
	case bytes.HasPrefix(data, utf16BEBOM):
		return decodeUTF16(data[len(utf16BEBOM):], unicode.BigEndian)
	}

	if m := xmlEncodingAttr.FindSubmatch(data); m != nil {
		switch strings.ToLower(string(m[1])) {
		case "iso-8859-1", "latin1":
			return decodeLatin1(data), nil
		case "utf-16", "utf-16le":
			return decodeUTF16(data, unicode.LittleEndian)
		case "utf-16be":
			return decodeUTF16(data, unicode.BigEndian)
		}
	}

	return string(data), nil
}

func decodeUTF16(data []byte, endian unicode.Endianness) (string, error) {
	enc := unicode.UTF16(endian, unicode.IgnoreBOM)
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	return string(out), nil
}

// decodeUTF32 decodes raw UTF-32 code units (4 bytes/rune, BOM
// already stripped) into text. golang.org/x/text has no public UTF-32
// codec, so this reads code points directly.
func decodeUTF32(data []byte, bigEndian bool) (string, error) {
	var b strings.Builder
	for i := 0; i+4 <= len(data); i += 4 {
		var cp uint32
		if bigEndian {
			cp = uint32(data[i])<<24 | uint32(data[i+1])<<16 | uint32(data[i+2])<<8 | uint32(data[i+3])
		} else {
			cp = uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		}
		b.WriteRune(rune(cp))
	}
	return b.String(), nil
}

func decodeLatin1(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}
