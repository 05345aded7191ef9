// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombineAndEmptyIsTrue(t *testing.T) {
	require.True(t, CombineAnd(nil))
}

func TestCombineOrEmptyIsFalse(t *testing.T) {
	require.False(t, CombineOr(nil))
}

func TestDispatchCombinesAndRuns(t *testing.T) {
	b := NewBus()
	var calls []int
	b.Register(PhaseBeforeJob, func(params any) bool {
		calls = append(calls, 1)
		return true
	})
	b.Register(PhaseBeforeJob, func(params any) bool {
		calls = append(calls, 2)
		return false
	})

	ok := b.Dispatch(PhaseBeforeJob, nil, CombineAnd)
	require.False(t, ok)
	require.Equal(t, []int{1, 2}, calls)
}

func TestDispatchMutatesParamsByPointer(t *testing.T) {
	b := NewBus()
	b.Register(PhaseRewriteParsedTSFileItem, func(params any) bool {
		p := params.(*struct{ Translation string })
		p.Translation = "rewritten"
		return true
	})

	params := &struct{ Translation string }{Translation: "original"}
	ok := b.Dispatch(PhaseRewriteParsedTSFileItem, params, CombineAnd)
	require.True(t, ok)
	require.Equal(t, "rewritten", params.Translation)
}

func TestHasHandlers(t *testing.T) {
	b := NewBus()
	require.False(t, b.HasHandlers(PhaseAfterJob))
	b.Register(PhaseAfterJob, func(params any) bool { return true })
	require.True(t, b.HasHandlers(PhaseAfterJob))
}

func TestDispatchTextReturnsFirstNonEmpty(t *testing.T) {
	b := NewBus()
	b.RegisterText(PhaseGetTranslationPre, func(params any) (string, bool) {
		return "", false
	})
	b.RegisterText(PhaseGetTranslationPre, func(params any) (string, bool) {
		return "bonjour", true
	})
	b.RegisterText(PhaseGetTranslationPre, func(params any) (string, bool) {
		t.Fatal("should not reach third handler")
		return "", false
	})

	text, ok := b.DispatchText(PhaseGetTranslationPre, nil)
	require.True(t, ok)
	require.Equal(t, "bonjour", text)
}

func TestDispatchTextNoHandlersReturnsNotOK(t *testing.T) {
	b := NewBus()
	_, ok := b.DispatchText(PhaseGetTranslation, nil)
	require.False(t, ok)
}
