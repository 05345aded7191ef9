// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package localize

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// padWidth looks for a "pad:<n>" flag among occ.Flags and returns its
// numeric argument.
func padWidth(flags []string) (int, bool) {
	for _, f := range flags {
		if n, ok := strings.CutPrefix(f, "pad:"); ok {
			width, err := strconv.Atoi(n)
			if err == nil && width > 0 {
				return width, true
			}
		}
	}
	return 0, false
}

// padTo right-pads text with spaces to width runes; text already at
// or beyond width is returned unchanged.
func padTo(text string, width int) string {
	n := utf8.RuneCountInString(text)
	if n >= width {
		return text
	}
	return text + strings.Repeat(" ", width-n)
}
