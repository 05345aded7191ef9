// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package localize

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf32LEBOM = []byte{0xFF, 0xFE, 0x00, 0x00}
	utf32BEBOM = []byte{0x00, 0x00, 0xFE, 0xFF}
)

// encode renders rendered to the job's configured output_encoding, with
// a byte-order mark when bom is set. JAVA escapes non-ASCII runes as
// \uXXXX (surrogate-paired above the BMP), the convention Java
// .properties loaders expect.
func encode(rendered []byte, outputEncoding string, bom bool) ([]byte, error) {
	switch strings.ToUpper(outputEncoding) {
	case "", "UTF-8":
		if bom {
			return append(append([]byte{}, utf8BOM...), rendered...), nil
		}
		return rendered, nil

	case "UTF-16LE":
		return encodeUTF16(rendered, unicode.LittleEndian, bom)
	case "UTF-16BE":
		return encodeUTF16(rendered, unicode.BigEndian, bom)

	case "UTF-32LE":
		return encodeUTF32(string(rendered), false, bom), nil
	case "UTF-32BE":
		return encodeUTF32(string(rendered), true, bom), nil

	case "JAVA":
		return []byte(encodeJava(string(rendered))), nil

	default:
		return nil, fmt.Errorf("unsupported output encoding %q", outputEncoding)
	}
}

func encodeUTF16(rendered []byte, endian unicode.Endianness, bom bool) ([]byte, error) {
	enc := unicode.UTF16(endian, unicode.IgnoreBOM)
	body, err := enc.NewEncoder().Bytes(rendered)
	if err != nil {
		return nil, fmt.Errorf("encode utf-16: %w", err)
	}
	if !bom {
		return body, nil
	}
	mark := utf16LEBOM
	if endian == unicode.BigEndian {
		mark = utf16BEBOM
	}
	return append(append([]byte{}, mark...), body...), nil
}

// encodeUTF32 encodes text as raw 4-byte code units. golang.org/x/text
// has no public UTF-32 codec, so this writes code points directly —
// the encode-side counterpart of textnorm's UTF-32 decoder.
func encodeUTF32(text string, bigEndian bool, bom bool) []byte {
	runes := []rune(text)
	out := make([]byte, 0, len(runes)*4+4)
	if bom {
		mark := utf32LEBOM
		if bigEndian {
			mark = utf32BEBOM
		}
		out = append(out, mark...)
	}
	buf := make([]byte, 4)
	for _, r := range runes {
		if bigEndian {
			binary.BigEndian.PutUint32(buf, uint32(r))
		} else {
			binary.LittleEndian.PutUint32(buf, uint32(r))
		}
		out = append(out, buf...)
	}
	return out
}

// encodeJava escapes every non-ASCII rune as \uXXXX, encoding runes
// above the Basic Multilingual Plane as a UTF-16 surrogate pair, per
// the java.util.Properties file convention.
func encodeJava(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String()
}
