// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package translate implements the engine's translation resolution
// order: a pre-DB hook chain, a direct lookup, fuzzy reuse across
// files of the same namespace (other namespaces are not searched), a
// post-DB hook chain, and finally recursive
// similar-language borrowing. Its public entry point is shaped to
// plug directly into pkg/tsfile's Resolver and pkg/localize's
// rendering callback.
package translate

import (
	"fmt"
	"sort"

	"github.com/agext/levenshtein"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/internal/metrics"
	"github.com/kraklabs/lsync/pkg/store"
)

// GetTranslationParams is passed to both the get_translation_pre and
// get_translation hook chains.
type GetTranslationParams struct {
	ItemID int64
	Lang   string
}

// Resolver holds the dependencies translation resolution needs for
// one job; Resolve matches pkg/tsfile.Resolver's signature.
type Resolver struct {
	Store *store.CachedStore
	Bus   *hooks.Bus
	Job   config.Job
}

// Resolve resolves the translation for (itemID, lang) per the
// engine's five-step order, upserting the result when fuzzy reuse
// supplied it so future runs find it directly.
func (r *Resolver) Resolve(itemID int64, lang string) (text string, fuzzy bool, comment string, err error) {
	return r.resolve(itemID, lang, false)
}

func (r *Resolver) resolve(itemID int64, lang string, disallowSimilarLang bool) (string, bool, string, error) {
	params := &GetTranslationParams{ItemID: itemID, Lang: lang}

	if t, ok := r.Bus.DispatchText(hooks.PhaseGetTranslationPre, params); ok {
		return t, false, "", nil
	}

	item, err := r.Store.GetItem(itemID)
	if err != nil {
		return "", false, "", fmt.Errorf("load item %d: %w", itemID, err)
	}
	str, err := r.Store.GetString(item.StringID)
	if err != nil {
		return "", false, "", fmt.Errorf("load string %d: %w", item.StringID, err)
	}
	if str.Skip {
		return "", false, "", nil
	}

	tr, err := r.Store.CachedTranslation(itemID, lang)
	if err != nil {
		return "", false, "", fmt.Errorf("lookup translation for item %d lang %s: %w", itemID, lang, err)
	}
	if tr != nil && tr.Text != "" {
		return tr.Text, tr.Fuzzy, tr.Comment, nil
	}

	if r.Job.Reuse.Translations {
		rtext, rfuzzy, rcomment, needSave, err := r.reuse(item, lang)
		if err != nil {
			return "", false, "", err
		}
		if rtext != "" {
			if needSave {
				if err := r.Store.UpsertTranslation(itemID, lang, rtext, rfuzzy, rcomment); err != nil {
					return "", false, "", fmt.Errorf("upsert reused translation for item %d lang %s: %w", itemID, lang, err)
				}
				r.Store.InvalidateTranslation(itemID, lang)
				metrics.USNBump()
			}
			return rtext, rfuzzy, rcomment, nil
		}
	}

	if t, ok := r.Bus.DispatchText(hooks.PhaseGetTranslation, params); ok {
		return t, false, "", nil
	}

	if disallowSimilarLang {
		return "", false, "", nil
	}

	sources := append([]string(nil), r.Job.SimilarLanguages[lang]...)
	sort.Strings(sources)
	for _, src := range sources {
		stext, sfuzzy, scomment, err := r.resolve(itemID, src, true)
		if err != nil {
			return "", false, "", err
		}
		if stext != "" {
			if r.Job.SimilarLanguagesAsFuzzy[lang] {
				sfuzzy = true
			}
			return stext, sfuzzy, scomment, nil
		}
	}

	return "", false, "", nil
}

// reuse implements step 3: find the best translation of item's
// (string, context) in lang from the other files of item's namespace
// (other namespaces are not searched), applying the
// ambiguity gate and fuzzy policy. needSave reports whether the
// caller should upsert the result.
func (r *Resolver) reuse(item *store.Item, lang string) (text string, fuzzy bool, comment string, needSave bool, err error) {
	file, err := r.Store.GetFile(item.FileID)
	if err != nil {
		return "", false, "", false, fmt.Errorf("load file %d: %w", item.FileID, err)
	}

	candidates, err := r.Store.FindBestTranslationCandidates(file.Namespace, item.StringID, lang, item.FileID, false)
	if err != nil {
		return "", false, "", false, fmt.Errorf("find best translation for item %d lang %s: %w", item.ID, lang, err)
	}
	if len(candidates) == 0 {
		return "", false, "", false, nil
	}
	if len(candidates) > 1 && !r.Job.Reuse.Uncertain {
		metrics.ReuseSkippedUncertain()
		return "", false, "", false, nil
	}

	best := candidates[0]
	if len(candidates) > 1 {
		best = rankByHint(candidates, item.Hint)
	}

	fuzzy = best.Fuzzy
	if !fuzzy {
		fuzzy = containsString(r.Job.Reuse.AsFuzzy, lang) ||
			(r.Job.Reuse.AsFuzzyDefault && !containsString(r.Job.Reuse.AsNotFuzzy, lang))
	}

	metrics.ReuseApplied()
	return best.Text, fuzzy, best.Comment, true, nil
}

// rankByHint picks the candidate whose donor item hint is closest
// (smallest Levenshtein edit distance) to hint, breaking ties by the
// candidates' existing file-path order.
func rankByHint(candidates []store.TranslationCandidate, hint string) store.TranslationCandidate {
	best := candidates[0]
	bestDist := levenshtein.Distance(hint, best.ItemHint, nil)
	for _, c := range candidates[1:] {
		d := levenshtein.Distance(hint, c.ItemHint, nil)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
