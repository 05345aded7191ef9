// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package localize renders one source file's localized output for one
// destination language: gate on mtime/hash, re-read and re-parse the
// source in the parser's rendering mode, resolve each occurrence's
// translation, encode to the job's configured output format, and
// write atomically.
package localize

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/kraklabs/lsync/internal/atomicfile"
	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/internal/metrics"
	"github.com/kraklabs/lsync/internal/textnorm"
	"github.com/kraklabs/lsync/pkg/engine"
	"github.com/kraklabs/lsync/pkg/parser"
	"github.com/kraklabs/lsync/pkg/store"
)

// Resolver resolves the translation for one item/lang pair — the same
// shape as pkg/tsfile.Resolver, duplicated here so this package
// doesn't need to import pkg/tsfile just for a function type.
type Resolver func(itemID int64, lang string) (text string, fuzzy bool, comment string, err error)

// RewriteTranslationParams is passed by pointer to the
// rewrite_translation hook so it can mutate a resolved translation
// before it's spliced into rendered output.
type RewriteTranslationParams struct {
	ItemID int64
	Lang   string
	Text   string
}

// EmitResult reports what Emit decided and did.
type EmitResult struct {
	Rendered bool // the source was re-parsed this run
	Written  bool // output bytes were (re)written to disk
}

// Emit renders and, if needed, writes the localized output for
// (fileID, lang). sourcePath is the normalized source to re-read;
// outputPath is the target localized file. forceRender mirrors the
// corresponding TS emission's USN-changed force-flag: when true, the
// mtime/hash skip gate below is bypassed.
func Emit(s *store.CachedStore, logger *slog.Logger, bus *hooks.Bus, job config.Job, resolve Resolver, p parser.Parser, fileID int64, lang, sourcePath, outputPath string, optimizationsEnabled, forceRender bool) (EmitResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, statErr := os.Stat(outputPath)
	targetMissing := statErr != nil

	currentSrcHash, _, err := s.CachedProperty(store.SourceHashKey(fileID))
	if err != nil {
		return EmitResult{}, fmt.Errorf("read source hash for file %d: %w", fileID, err)
	}
	currentTSHash, _, err := s.CachedProperty(store.TSHashKey(fileID, lang))
	if err != nil {
		return EmitResult{}, fmt.Errorf("read ts hash for file %d lang %s: %w", fileID, lang, err)
	}

	if optimizationsEnabled && !forceRender && !targetMissing {
		storedMtime, hadMtime, err := s.CachedProperty(store.TargetMtimeKey(fileID, job.JobID, lang))
		if err != nil {
			return EmitResult{}, fmt.Errorf("read target mtime for file %d lang %s: %w", fileID, lang, err)
		}
		storedSrcHash, hadSrc, err := s.CachedProperty(store.LocalizedSourceHashKey(fileID, job.JobID, lang))
		if err != nil {
			return EmitResult{}, fmt.Errorf("read localized source hash for file %d lang %s: %w", fileID, lang, err)
		}
		storedTSHash, hadTS, err := s.CachedProperty(store.LocalizedTSHashKey(fileID, job.JobID, lang))
		if err != nil {
			return EmitResult{}, fmt.Errorf("read localized ts hash for file %d lang %s: %w", fileID, lang, err)
		}

		if hadMtime && storedMtime == strconv.FormatInt(info.ModTime().UnixNano(), 10) &&
			hadSrc && storedSrcHash == currentSrcHash &&
			hadTS && storedTSHash == currentTSHash {
			metrics.LocalizedSkipped()
			return EmitResult{}, nil
		}
	}

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return EmitResult{}, fmt.Errorf("read source %s: %w", sourcePath, err)
	}
	text, err := textnorm.Normalize(raw)
	if err != nil {
		return EmitResult{}, fmt.Errorf("normalize source %s: %w", sourcePath, err)
	}

	seenKeys := map[string]bool{}
	seenSourceKeys := map[string]bool{}

	rendered, err := p.Parse([]byte(text), lang, func(occ parser.Occurrence) (string, error) {
		return translateOccurrence(s, bus, resolve, job, fileID, lang, occ, seenKeys, seenSourceKeys, logger)
	})
	if err != nil {
		return EmitResult{}, fmt.Errorf("render %s for lang %s: %w", sourcePath, lang, err)
	}

	encoded, err := encode(rendered, job.OutputEncoding, job.OutputBOM)
	if err != nil {
		return EmitResult{}, fmt.Errorf("encode rendered output for %s: %w", outputPath, err)
	}

	storedTargetHash, hadTargetHash, err := s.CachedProperty(store.TargetHashKey(fileID, job.JobID, lang))
	if err != nil {
		return EmitResult{}, fmt.Errorf("read target hash for file %d lang %s: %w", fileID, lang, err)
	}
	newHash := contentHashHex(encoded)

	shouldWrite := !optimizationsEnabled || forceRender || targetMissing || !hadTargetHash || storedTargetHash != newHash
	written := false
	if shouldWrite {
		if err := atomicfile.Write(outputPath, encoded, 0o644); err != nil {
			return EmitResult{}, fmt.Errorf("write localized file %s: %w", outputPath, err)
		}
		written = true
		metrics.LocalizedWritten()

		newInfo, err := os.Stat(outputPath)
		if err != nil {
			return EmitResult{}, fmt.Errorf("stat written file %s: %w", outputPath, err)
		}
		if err := s.SetCachedProperty(store.TargetHashKey(fileID, job.JobID, lang), newHash); err != nil {
			return EmitResult{}, fmt.Errorf("write target hash for file %d lang %s: %w", fileID, lang, err)
		}
		if err := s.SetCachedProperty(store.TargetMtimeKey(fileID, job.JobID, lang), strconv.FormatInt(newInfo.ModTime().UnixNano(), 10)); err != nil {
			return EmitResult{}, fmt.Errorf("write target mtime for file %d lang %s: %w", fileID, lang, err)
		}
	} else {
		metrics.LocalizedSkipped()
	}

	if err := s.SetCachedProperty(store.LocalizedSourceHashKey(fileID, job.JobID, lang), currentSrcHash); err != nil {
		return EmitResult{}, fmt.Errorf("write localized source hash for file %d lang %s: %w", fileID, lang, err)
	}
	if err := s.SetCachedProperty(store.LocalizedTSHashKey(fileID, job.JobID, lang), currentTSHash); err != nil {
		return EmitResult{}, fmt.Errorf("write localized ts hash for file %d lang %s: %w", fileID, lang, err)
	}

	return EmitResult{Rendered: true, Written: written}, nil
}

// translateOccurrence resolves, via the same item a prior extraction
// pass created, the translation to splice in for occ: normalize and
// NFC identically to extraction before lookup, resolve, hook rewrite,
// re-NFC on mutation, then apply a trailing-space pad flag.
func translateOccurrence(s *store.CachedStore, bus *hooks.Bus, resolve Resolver, job config.Job, fileID int64, lang string, occ parser.Occurrence, seenKeys, seenSourceKeys map[string]bool, logger *slog.Logger) (string, error) {
	original := occ.Text

	normOcc, dropped := engine.NormalizeOccurrence(occ, job.NormalizeStrings)
	if dropped {
		return original, nil
	}

	context := engine.Disambiguate(normOcc, seenKeys, seenSourceKeys, logger)

	stringID, ok, err := s.GetStringID(normOcc.Text, context, true)
	if err != nil {
		return original, fmt.Errorf("lookup string for occurrence %q: %w", normOcc.Text, err)
	}
	if !ok {
		return original, nil
	}
	itemID, ok, err := s.GetItemID(fileID, stringID, true)
	if err != nil {
		return original, fmt.Errorf("lookup item for occurrence %q: %w", normOcc.Text, err)
	}
	if !ok {
		return original, nil
	}

	text, _, _, err := resolve(itemID, lang)
	if err != nil {
		return original, fmt.Errorf("resolve translation for item %d lang %s: %w", itemID, lang, err)
	}
	if text == "" {
		text = original
	}

	params := &RewriteTranslationParams{ItemID: itemID, Lang: lang, Text: text}
	before := params.Text
	bus.Dispatch(hooks.PhaseRewriteTranslation, params, hooks.CombineAnd)
	text = params.Text
	if text != before {
		text = norm.NFC.String(text)
	}

	if width, ok := padWidth(occ.Flags); ok {
		text = padTo(text, width)
	}

	return text, nil
}

func contentHashHex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
