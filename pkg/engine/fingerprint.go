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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/pkg/store"
)

// Fingerprint is a stable hash of the parts of a job's configuration
// that change what gets regenerated: languages, walk filters, reuse
// policy, and similar-language rules. It does not include paths that
// only affect where output lands (SourceDir, StorePath).
func Fingerprint(job config.Job) string {
	h := sha256.New()

	langs := append([]string(nil), job.Languages...)
	sort.Strings(langs)
	fmt.Fprintf(h, "langs:%s\n", strings.Join(langs, ","))

	include := append([]string(nil), job.Walk.Include...)
	exclude := append([]string(nil), job.Walk.Exclude...)
	sort.Strings(include)
	sort.Strings(exclude)
	fmt.Fprintf(h, "include:%s\n", strings.Join(include, ","))
	fmt.Fprintf(h, "exclude:%s\n", strings.Join(exclude, ","))
	fmt.Fprintf(h, "maxsize:%d\n", job.Walk.MaxFileSize)

	fmt.Fprintf(h, "reuse:%v,%v,%v\n", job.Reuse.Translations, job.Reuse.Uncertain, job.Reuse.AsFuzzyDefault)
	asFuzzy := append([]string(nil), job.Reuse.AsFuzzy...)
	asNotFuzzy := append([]string(nil), job.Reuse.AsNotFuzzy...)
	sort.Strings(asFuzzy)
	sort.Strings(asNotFuzzy)
	fmt.Fprintf(h, "as_fuzzy:%s\n", strings.Join(asFuzzy, ","))
	fmt.Fprintf(h, "as_not_fuzzy:%s\n", strings.Join(asNotFuzzy, ","))

	simLangKeys := make([]string, 0, len(job.SimilarLanguages))
	for k := range job.SimilarLanguages {
		simLangKeys = append(simLangKeys, k)
	}
	sort.Strings(simLangKeys)
	for _, k := range simLangKeys {
		fmt.Fprintf(h, "similar:%s=%s\n", k, strings.Join(job.SimilarLanguages[k], ","))
	}

	fmt.Fprintf(h, "encoding:%s,bom:%v\n", job.OutputEncoding, job.OutputBOM)

	return hex.EncodeToString(h.Sum(nil))
}

// OptimizationsEnabled reports whether cached optimizations may be
// trusted for this run. It compares the current job fingerprint,
// engine version, and parser-plugin version against the values stored
// from the last successful run. Any mismatch, the job's own
// DisableOptimizations flag, or a missing stored value turns
// optimizations globally off: every stage regenerates from scratch.
func OptimizationsEnabled(s *store.CachedStore, job config.Job) (bool, error) {
	if job.DisableOptimizations {
		return false, nil
	}

	want := Fingerprint(job)
	got, ok, err := s.CachedProperty(store.JobHashKey(job.Namespace, job.JobID))
	if err != nil {
		return false, fmt.Errorf("read job hash property: %w", err)
	}
	if !ok || got != want {
		return false, nil
	}

	engineGot, ok, err := s.CachedProperty(store.JobEngineKey(job.Namespace, job.JobID))
	if err != nil {
		return false, fmt.Errorf("read job engine property: %w", err)
	}
	if !ok || engineGot != job.EngineVersion {
		return false, nil
	}

	pluginGot, ok, err := s.CachedProperty(store.JobPluginKey(job.Namespace, job.JobID))
	if err != nil {
		return false, fmt.Errorf("read job plugin property: %w", err)
	}
	if !ok || pluginGot != job.PluginVersion {
		return false, nil
	}

	return true, nil
}

// PersistFingerprint writes the job's current fingerprint, engine
// version, and plugin version back to the store. Called on a
// successful job run so the next run can trust cached optimizations.
func PersistFingerprint(s *store.CachedStore, job config.Job) error {
	if err := s.SetCachedProperty(store.JobHashKey(job.Namespace, job.JobID), Fingerprint(job)); err != nil {
		return fmt.Errorf("write job hash property: %w", err)
	}
	if err := s.SetCachedProperty(store.JobEngineKey(job.Namespace, job.JobID), job.EngineVersion); err != nil {
		return fmt.Errorf("write job engine property: %w", err)
	}
	if err := s.SetCachedProperty(store.JobPluginKey(job.Namespace, job.JobID), job.PluginVersion); err != nil {
		return fmt.Errorf("write job plugin property: %w", err)
	}
	return nil
}
