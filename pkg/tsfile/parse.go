// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tsfile

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var msgstrIndexed = regexp.MustCompile(`^msgstr\[(\d+)\]\s+"(.*)"$`)

// quotedField matches a `keyword "value"` line; value may contain
// escaped quotes, so this is deliberately permissive and relies on the
// trailing `"` being the true terminator (TS text never contains a
// bare, unescaped quote followed directly by end of line in valid
// output — malformed input simply fails to match and the field is
// left empty, which validation then drops).
func quotedField(line, keyword string) (string, bool) {
	prefix := keyword + " \""
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, `"`) {
		return "", false
	}
	return line[len(prefix) : len(line)-1], true
}

func quotedContinuation(line string) (string, bool) {
	if len(line) < 2 || line[0] != '"' || line[len(line)-1] != '"' {
		return "", false
	}
	return line[1 : len(line)-1], true
}

// Parse splits data into blocks on blank lines, joins quoted
// continuation lines, and parses each block into an Entry. The first
// header-style block (empty msgid, no key) is dropped silently. A
// later header-style block with a key produces a warning (reported via
// warn) and is dropped; one without a key is fatal: parsing stops and
// the entries collected so far are returned alongside stoppedEarly=true.
func Parse(data []byte, warn func(string)) (entries []Entry, stoppedEarly bool) {
	if warn == nil {
		warn = func(string) {}
	}

	rawLines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	var blocks [][]string
	var cur []string
	for _, l := range rawLines {
		if strings.TrimSpace(l) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}

	for i, block := range blocks {
		entry := parseBlock(block)
		if entry.MsgID == "" {
			if i == 0 {
				continue
			}
			if entry.Key != "" {
				warn("tsfile: empty-string block with ID " + entry.Key + " mid-file")
				continue
			}
			stoppedEarly = true
			return entries, true
		}
		entries = append(entries, entry)
	}
	return entries, false
}

func parseBlock(lines []string) Entry {
	var e Entry
	var msgstrs = map[int]string{}
	var msgidPlural string
	lastField := ""
	pendingID := false

	appendTranslatorComment := func(c string) {
		if e.TranslatorComment == "" {
			e.TranslatorComment = c
		} else {
			e.TranslatorComment += "\n" + c
		}
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "#:"):
			rest := strings.TrimSpace(trimmed[2:])
			switch {
			case strings.HasPrefix(rest, "File:"):
				e.FilePath = strings.TrimSpace(rest[len("File:"):])
				pendingID = false
			case strings.HasPrefix(rest, "ID:"):
				val := strings.TrimSpace(rest[len("ID:"):])
				if val == "" {
					pendingID = true
				} else {
					e.Key = val
					pendingID = false
				}
			case pendingID:
				e.Key = rest
				pendingID = false
			}
			lastField = ""

		case strings.HasPrefix(trimmed, "#,"):
			for _, f := range strings.Split(trimmed[2:], ",") {
				f = strings.TrimSpace(f)
				if f != "" {
					e.Flags = append(e.Flags, f)
				}
			}
			lastField = ""

		case strings.HasPrefix(trimmed, "#."):
			e.DevComments = append(e.DevComments, strings.TrimSpace(trimmed[2:]))
			lastField = ""

		case strings.HasPrefix(trimmed, "#"):
			appendTranslatorComment(strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			lastField = ""

		case strings.HasPrefix(trimmed, "msgctxt "):
			if v, ok := quotedField(trimmed, "msgctxt"); ok {
				e.Context = v
				lastField = "msgctxt"
			}

		case strings.HasPrefix(trimmed, "msgid_plural "):
			if v, ok := quotedField(trimmed, "msgid_plural"); ok {
				msgidPlural = v
				lastField = "msgid_plural"
			}

		case strings.HasPrefix(trimmed, "msgid "):
			if v, ok := quotedField(trimmed, "msgid"); ok {
				e.MsgID = v
				lastField = "msgid"
			}

		case msgstrIndexed.MatchString(trimmed):
			m := msgstrIndexed.FindStringSubmatch(trimmed)
			idx := 0
			for _, c := range m[1] {
				idx = idx*10 + int(c-'0')
			}
			msgstrs[idx] = m[2]
			lastField = "msgstr"

		case strings.HasPrefix(trimmed, "msgstr "):
			if v, ok := quotedField(trimmed, "msgstr"); ok {
				msgstrs[0] = v
				lastField = "msgstr"
			}

		default:
			if v, ok := quotedContinuation(trimmed); ok {
				switch lastField {
				case "msgctxt":
					e.Context += v
				case "msgid":
					e.MsgID += v
				case "msgid_plural":
					msgidPlural += v
				case "msgstr":
					// continuation of whichever msgstr[N] was last set
					maxIdx := 0
					for k := range msgstrs {
						if k > maxIdx {
							maxIdx = k
						}
					}
					msgstrs[maxIdx] += v
				}
			}
		}
	}

	e.Context = norm.NFC.String(unescape(stripControl(e.Context)))
	e.MsgID = norm.NFC.String(unescape(stripControl(e.MsgID)))
	if msgidPlural != "" {
		e.MsgID += unitSeparator + norm.NFC.String(unescape(stripControl(msgidPlural)))
	}

	if len(msgstrs) > 0 {
		maxIdx := 0
		for k := range msgstrs {
			if k > maxIdx {
				maxIdx = k
			}
		}
		e.Translations = make([]string, maxIdx+1)
		for i := 0; i <= maxIdx; i++ {
			e.Translations[i] = norm.NFC.String(unescape(stripControl(msgstrs[i])))
		}
	}

	return e
}

// stripControl removes C0 control characters except newline, per the
// content-normalization rule shared with source file hashing.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
