// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/internal/metrics"
	"github.com/kraklabs/lsync/internal/textnorm"
	"github.com/kraklabs/lsync/pkg/localize"
	"github.com/kraklabs/lsync/pkg/parser"
	"github.com/kraklabs/lsync/pkg/store"
	"github.com/kraklabs/lsync/pkg/translate"
	"github.com/kraklabs/lsync/pkg/tsfile"
)

// TSPath and OutputPath resolve a found file's relative path and a
// destination language to the TS interchange path and the localized
// output path respectively. Macro-token templating (%FILE%, %LANG%,
// ...) is a collaborator's concern, not the engine's — these are
// plain functions so any templating scheme can be plugged in.
type TSPath func(relPath, lang string) string
type OutputPath func(relPath, lang string) string

// RunResult summarizes one job run for logging/status reporting.
type RunResult struct {
	Scan            *ScanResult
	FilesParsed     int
	FilesSkipped    int
	TSRegenerated   int
	TSSkipped       int
	LocalizedWritten int
	LocalizedSkipped int
	OptimizationsEnabled bool
	Duration        time.Duration
}

// Run drives one job end to end: prelude, source scan & DB update, TS
// ingestion, TS emission, localized emission, fingerprint commit. It
// owns no transaction boundary itself — the caller's store handle is
// expected to wrap one and commit after Run returns successfully.
func Run(raw *store.SQLStore, logger *slog.Logger, bus *hooks.Bus, job config.Job, p parser.Parser, tsPath TSPath, outputPath OutputPath) (*RunResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = hooks.NewBus()
	}

	start := time.Now()

	s, err := store.NewCachedStore(raw)
	if err != nil {
		return nil, fmt.Errorf("wrap store: %w", err)
	}

	optimizationsEnabled, err := OptimizationsEnabled(s, job)
	if err != nil {
		return nil, fmt.Errorf("check optimizations: %w", err)
	}

	modifiedLanguages := modifiedLanguageSet(job.Languages, job.ModifiedLanguages)

	if err := s.PreloadTranslationsForJob(job.Namespace, job.JobID, job.Languages); err != nil {
		return nil, fmt.Errorf("preload translations for job %s/%s: %w", job.Namespace, job.JobID, err)
	}

	bus.Dispatch(hooks.PhaseBeforeJob, &job, hooks.CombineAnd)

	result := &RunResult{OptimizationsEnabled: optimizationsEnabled}

	bus.Dispatch(hooks.PhaseBeforeUpdateDatabaseFromSourceFiles, &job, hooks.CombineAnd)

	var scanResult *ScanResult
	skippedPaths := map[string]bool{}
	if !job.OutputOnlyMode {
		scanResult, err = Scan(s, job, rewritePathFromBus(bus))
		if err != nil {
			return nil, fmt.Errorf("scan source tree: %w", err)
		}
		result.Scan = scanResult

		changed := map[string]bool{}
		for _, rp := range scanResult.Added {
			changed[rp] = true
		}
		for _, rp := range scanResult.Modified {
			changed[rp] = true
		}

		paths := sortedKeys(scanResult.Found)
		for _, relPath := range paths {
			f := scanResult.Found[relPath]

			if optimizationsEnabled && !changed[relPath] {
				skippedPaths[relPath] = true
				result.FilesSkipped++
				continue
			}

			abs := fileAbsPath(job.SourceDir, relPath)
			content, err := normalizedContent(abs)
			if err != nil {
				logger.Warn("pipeline.parse.read_failed", "path", relPath, "err", err)
				continue
			}

			itemIDs, contentHash, size, err := IngestFile(s, logger, bus, job, f.ID, p, content)
			if err != nil {
				logger.Warn("pipeline.parse.failed", "path", relPath, "err", err)
				continue
			}
			if err := ReconcileItemOrphans(s, f.ID, itemIDs); err != nil {
				return nil, fmt.Errorf("reconcile item orphans for %s: %w", relPath, err)
			}
			if err := persistFileProperties(s, f.ID, contentHash, size, itemIDs); err != nil {
				return nil, fmt.Errorf("persist file properties for %s: %w", relPath, err)
			}
			result.FilesParsed++
		}
	}

	resolver := &translate.Resolver{Store: s, Bus: bus, Job: job}

	bus.Dispatch(hooks.PhaseBeforeUpdateDatabaseFromTSFile, &job, hooks.CombineAnd)

	if !job.OutputOnlyMode && !job.RebuildTSFiles && scanResult != nil {
		for _, relPath := range sortedKeys(scanResult.Found) {
			f := scanResult.Found[relPath]
			count, err := itemCount(s, f.ID)
			if err != nil {
				return nil, fmt.Errorf("count items for %s: %w", relPath, err)
			}
			if count == 0 {
				continue
			}
			for _, lang := range modifiedLanguages {
				if lang == job.SourceLang {
					continue
				}
				if err := tsfile.Ingest(s, logger, bus, f.ID, lang, tsPath(relPath, lang)); err != nil {
					return nil, fmt.Errorf("ingest ts file for %s/%s: %w", relPath, lang, err)
				}
			}
		}
	}

	bus.Dispatch(hooks.PhaseBeforeGenerateTSFiles, &job, hooks.CombineAnd)

	forceLocalized := map[string]bool{}
	if !job.OutputOnlyMode && scanResult != nil {
		for _, relPath := range sortedKeys(scanResult.Found) {
			f := scanResult.Found[relPath]
			langs := job.Languages
			if skippedPaths[relPath] {
				langs = modifiedLanguages
			}
			for _, lang := range langs {
				if lang == job.SourceLang {
					continue
				}
				res, err := tsfile.Emit(s, logger, bus, job, resolver.Resolve, f.ID, lang, relPath, tsPath(relPath, lang), optimizationsEnabled)
				if err != nil {
					return nil, fmt.Errorf("emit ts file for %s/%s: %w", relPath, lang, err)
				}
				if res.Regenerated {
					result.TSRegenerated++
				} else {
					result.TSSkipped++
				}
				if res.USNChanged {
					forceLocalized[relPath+"\x00"+lang] = true
				}
			}
		}
	}

	bus.Dispatch(hooks.PhaseBeforeGenerateLocalizedFiles, &job, hooks.CombineAnd)

	if !job.DebugNoSaveLoc && scanResult != nil {
		for _, relPath := range sortedKeys(scanResult.Found) {
			f := scanResult.Found[relPath]
			langs := job.Languages
			if skippedPaths[relPath] {
				langs = modifiedLanguages
			}
			if job.OutputDefaultLangFile {
				langs = append(append([]string(nil), langs...), job.SourceLang)
			}

			for _, lang := range langs {
				force := forceLocalized[relPath+"\x00"+lang]
				res, err := localize.Emit(s, logger, bus, job, resolver.Resolve, p, f.ID, lang,
					fileAbsPath(job.SourceDir, relPath), outputPath(relPath, lang), optimizationsEnabled, force)
				if err != nil {
					return nil, fmt.Errorf("emit localized file for %s/%s: %w", relPath, lang, err)
				}
				if res.Written {
					result.LocalizedWritten++
				} else {
					result.LocalizedSkipped++
				}
			}
		}
	}

	if err := PersistFingerprint(s, job); err != nil {
		return nil, fmt.Errorf("persist job fingerprint: %w", err)
	}

	bus.Dispatch(hooks.PhaseAfterJob, &job, hooks.CombineAnd)

	result.Duration = time.Since(start)
	metrics.ObserveJob(result.Duration.Seconds())

	return result, nil
}

// modifiedLanguageSet intersects all with override; an empty override
// means "every destination language is modified".
func modifiedLanguageSet(all, override []string) []string {
	if len(override) == 0 {
		return append([]string(nil), all...)
	}
	set := make(map[string]bool, len(override))
	for _, l := range override {
		set[l] = true
	}
	var out []string
	for _, l := range all {
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}

// RewritePathParams is passed by pointer to the rewrite_path hook so
// it can remap the relative path a walk discovered.
type RewritePathParams struct {
	Path string
}

// rewritePathFromBus adapts the hooks bus's rewrite_path phase to
// Scan's RewritePath function type.
func rewritePathFromBus(bus *hooks.Bus) RewritePath {
	if !bus.HasHandlers(hooks.PhaseRewritePath) {
		return nil
	}
	return func(relPath string) string {
		params := &RewritePathParams{Path: relPath}
		bus.Dispatch(hooks.PhaseRewritePath, params, hooks.CombineAnd)
		return params.Path
	}
}

func fileAbsPath(sourceDir, relPath string) string {
	if sourceDir == "" {
		return filepath.FromSlash(relPath)
	}
	return filepath.Join(sourceDir, filepath.FromSlash(relPath))
}

// normalizedContent reads and normalizes a source file's bytes (§4.8)
// so the hash IngestFile computes matches the one Scan already hashed
// this same content against.
func normalizedContent(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := textnorm.Normalize(data)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func itemCount(s *store.CachedStore, fileID int64) (int, error) {
	raw, ok, err := s.CachedProperty(store.ItemsKey(fileID))
	if err != nil {
		return 0, err
	}
	if !ok || raw == "" {
		return 0, nil
	}
	return len(strings.Split(raw, ",")), nil
}

func sortedKeys(m map[string]*store.File) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
