// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package parser defines the contract every source-file format plugs
// into the engine through: a single Parse method that runs in one of
// two modes depending on whether a destination language is given.
package parser

// Callback is invoked once per translatable string the parser finds.
//
// In extraction mode (Lang == "" on the call to Parse), the callback's
// return value is ignored — the parser is only gathering strings.
//
// In rendering mode (Lang != ""), the callback returns the
// translation to splice into the output buffer in place of the
// original string; an empty return leaves the source string as-is.
type Callback func(item Occurrence) (translated string, err error)

// Occurrence describes one extracted string at the point the parser
// found it.
type Occurrence struct {
	// Text is the literal string as it appears in the source.
	Text string

	// Context disambiguates Text from other occurrences of the same
	// text within the same file (see the disambiguation algorithm in
	// pkg/engine). Starts empty; the engine may fill it in before the
	// item is looked up or created.
	Context string

	// Hint is a human-readable location or usage hint (e.g. a
	// surrounding function or label name) attached to the Item.
	Hint string

	// Flags carries parser-reported flags such as "fuzzy" or
	// "c-format". The engine passes them to the can_extract hook; they
	// are not stored on the Item and are not written to TS files.
	Flags []string

	// SourceKey is an optional stable identifier the source format
	// provides for this occurrence (e.g. a translation key in a
	// key/value format). Used preferentially during disambiguation.
	SourceKey string
}

// Parser parses one source file format, or renders one using
// translations supplied by callback.
type Parser interface {
	// Parse scans buffer and invokes callback for every translatable
	// string found.
	//
	// If lang == "", this is extraction: callback's return value is
	// ignored, and rendered is always nil.
	//
	// If lang != "", this is rendering: callback returns the
	// translated string for each occurrence, and Parse returns the
	// buffer with every occurrence replaced by its translation.
	Parse(buffer []byte, lang string, callback Callback) (rendered []byte, err error)
}
