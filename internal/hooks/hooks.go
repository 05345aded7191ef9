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

// Package hooks implements the phase-keyed handler bus the engine
// dispatches through at each pipeline stage: before_job,
// before_update_database_from_source_files,
// before_update_database_from_ts_file, before_generate_ts_files,
// before_generate_localized_files, and after_job, plus the
// per-item rewrite_parsed_ts_file_item hook.
//
// Handlers receive their phase's parameters by pointer so they can
// mutate strings, flags, and hints in place; the Bus itself only
// tracks ordering and combines boolean results.
package hooks

// Phase names the engine dispatches at each pipeline stage.
type Phase string

const (
	PhaseBeforeJob                           Phase = "before_job"
	PhaseBeforeUpdateDatabaseFromSourceFiles Phase = "before_update_database_from_source_files"
	PhaseBeforeUpdateDatabaseFromTSFile      Phase = "before_update_database_from_ts_file"
	PhaseBeforeGenerateTSFiles                Phase = "before_generate_ts_files"
	PhaseBeforeGenerateLocalizedFiles         Phase = "before_generate_localized_files"
	PhaseAfterJob                             Phase = "after_job"
	PhaseRewriteParsedTSFileItem              Phase = "rewrite_parsed_ts_file_item"
	PhaseRewritePath                          Phase = "rewrite_path"

	// PhaseCanExtract, PhaseCanTranslate, and PhaseRewriteTranslation
	// mutate/gate through the ordinary bool Handler chain
	// (Dispatch/CombineAnd).
	PhaseCanExtract         Phase = "can_extract"
	PhaseCanTranslate       Phase = "can_translate"
	PhaseRewriteTranslation Phase = "rewrite_translation"
	PhaseAddDevComment      Phase = "add_dev_comment"

	// PhaseGetTranslationPre and PhaseGetTranslation are resolved
	// through the TextHandler chain (RegisterText/DispatchText): first
	// handler to return ok=true with non-empty text wins.
	PhaseGetTranslationPre Phase = "get_translation_pre"
	PhaseGetTranslation    Phase = "get_translation"
)

// Combine reduces a phase's handler results into a single boolean.
type Combine func(results []bool) bool

// CombineAnd requires every handler to return true. An empty handler
// list is vacuously true.
func CombineAnd(results []bool) bool {
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}

// CombineOr requires at least one handler to return true. An empty
// handler list is false.
func CombineOr(results []bool) bool {
	for _, r := range results {
		if r {
			return true
		}
	}
	return false
}

// Handler is a phase callback. It receives an arbitrary parameter
// value (typically a pointer to a phase-specific struct so it can
// mutate fields) and returns a boolean the Bus combines per phase.
type Handler func(params any) bool

// TextHandler resolves translation text from a hook chain. ok=false
// (or an empty text) means "no opinion, try the next handler".
type TextHandler func(params any) (text string, ok bool)

// Bus maps phases to ordered handler lists.
type Bus struct {
	handlers     map[Phase][]Handler
	textHandlers map[Phase][]TextHandler
}

// NewBus returns an empty hook bus.
func NewBus() *Bus {
	return &Bus{
		handlers:     make(map[Phase][]Handler),
		textHandlers: make(map[Phase][]TextHandler),
	}
}

// Register appends handler to the end of phase's handler list.
func (b *Bus) Register(phase Phase, handler Handler) {
	b.handlers[phase] = append(b.handlers[phase], handler)
}

// Dispatch invokes every handler registered for phase, in registration
// order, passing params to each, and reduces their results with
// combine. A phase with no handlers returns combine(nil).
func (b *Bus) Dispatch(phase Phase, params any, combine Combine) bool {
	handlers := b.handlers[phase]
	results := make([]bool, len(handlers))
	for i, h := range handlers {
		results[i] = h(params)
	}
	return combine(results)
}

// HasHandlers reports whether any handler is registered for phase.
func (b *Bus) HasHandlers(phase Phase) bool {
	return len(b.handlers[phase]) > 0
}

// RegisterText appends a TextHandler to the end of phase's chain.
func (b *Bus) RegisterText(phase Phase, handler TextHandler) {
	b.textHandlers[phase] = append(b.textHandlers[phase], handler)
}

// DispatchText runs phase's TextHandler chain in registration order
// and returns the first non-empty result. Returns ok=false if no
// handler produced one.
func (b *Bus) DispatchText(phase Phase, params any) (text string, ok bool) {
	for _, h := range b.textHandlers[phase] {
		if t, ok := h(params); ok && t != "" {
			return t, true
		}
	}
	return "", false
}
