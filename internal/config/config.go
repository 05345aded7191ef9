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

// Package config decodes a job's lsync.yaml into the settings the
// engine needs for one run: where the source tree lives, which
// languages to produce, how fuzzy reuse behaves, and which
// optimizations are allowed.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job holds the full configuration for one lsync job.
type Job struct {
	// Namespace and JobID together with the source path identify the
	// job's file rows in the store.
	Namespace string `yaml:"namespace"`
	JobID     string `yaml:"job_id"`

	// SourceDir is the root of the tree to scan.
	SourceDir string `yaml:"source_dir"`

	// StorePath overrides where the job's sqlite translation store
	// lives. Empty means bootstrap's default:
	// ~/.lsync/data/<namespace>/<job_id>/translations.db
	StorePath string `yaml:"store_path"`

	// SourceLang is the language the source tree itself is written in.
	// Excluded from TS ingestion; included in localized emission only
	// when OutputDefaultLangFile is set.
	SourceLang string `yaml:"source_lang"`

	// ParserFormat names the registered Parser implementation this job
	// extracts strings with (e.g. "plaintext", "go", "python",
	// "javascript"). Concrete Parser implementations are a
	// collaborator's concern (cmd/lsync holds the registry); this
	// field only records which one a job asked for.
	ParserFormat string `yaml:"parser_format"`

	// NormalizeStrings collapses internal whitespace runs to a single
	// space and trims each extracted string, unless the parser flags
	// it "dont-normalize"; a "normalize" flag forces it regardless of
	// this setting.
	NormalizeStrings bool `yaml:"normalize_strings"`

	// Languages is the set of destination languages to localize into.
	Languages []string `yaml:"languages"`

	// ModifiedLanguages, if non-empty, restricts TS ingest/emission to
	// this subset of Languages for the run (e.g. "only what a CI diff
	// touched"). Empty means all of Languages.
	ModifiedLanguages []string `yaml:"modified_languages"`

	// TSDir and OutputDir are the TS interchange tree and the localized
	// output tree, both relative to SourceDir unless absolute.
	TSDir     string `yaml:"ts_dir"`
	OutputDir string `yaml:"output_dir"`

	// OutputOnlyMode restricts the run to TS ingest being skipped
	// entirely and requires files already exist in the store — no
	// source scan creates new File rows.
	OutputOnlyMode bool `yaml:"output_only_mode"`

	// RebuildTSFiles forces TS emission for every (file, lang) and
	// skips TS ingestion this run.
	RebuildTSFiles bool `yaml:"rebuild_ts_files"`

	// DebugNoSaveLoc skips the localized emission stage entirely,
	// useful for a dry run that only wants the database and TS files
	// updated.
	DebugNoSaveLoc bool `yaml:"debug_nosave_loc"`

	// OutputDefaultLangFile also renders a localized file for
	// SourceLang itself (normally only destination languages are
	// rendered).
	OutputDefaultLangFile bool `yaml:"output_default_lang_file"`

	// Walk controls source tree traversal.
	Walk WalkConfig `yaml:"walk"`

	// Reuse controls fuzzy translation reuse across files of the same
	// namespace; other namespaces are not searched.
	Reuse ReuseConfig `yaml:"reuse"`

	// SimilarLanguages maps a destination language to the ordered list
	// of languages to recursively borrow translations from when no
	// direct translation exists.
	SimilarLanguages map[string][]string `yaml:"similar_languages"`

	// SimilarLanguagesAsFuzzy marks a destination language's
	// similar-language-derived translations as fuzzy even when the
	// donor language's own translation isn't.
	SimilarLanguagesAsFuzzy map[string]bool `yaml:"similar_languages_as_fuzzy"`

	// OutputEncoding is the encoding used for localized file output:
	// one of "UTF-8", "UTF-16LE", "UTF-16BE", "UTF-32LE", "UTF-32BE",
	// or "JAVA" (ASCII with \uXXXX escapes).
	OutputEncoding string `yaml:"output_encoding"`

	// OutputBOM writes a byte-order mark for UTF-16/32 encodings.
	OutputBOM bool `yaml:"output_bom"`

	// DisableOptimizations forces every stage to regenerate, ignoring
	// content hashes and USN gating. Used for the job fingerprint
	// mismatch path and for manual full rebuilds.
	DisableOptimizations bool `yaml:"disable_optimizations"`

	// EngineVersion and PluginVersion are stored beside the job
	// fingerprint and compared on every run, so a binary upgrade
	// invalidates cached optimizations automatically.
	EngineVersion string `yaml:"-"`
	PluginVersion string `yaml:"-"`
}

// WalkConfig controls which files the source scan considers.
type WalkConfig struct {
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// ReuseConfig controls fuzzy reuse policy across the files of one
// namespace.
type ReuseConfig struct {
	// Translations enables cross-file fuzzy reuse within the file's
	// namespace; translations in other namespaces are not reused.
	Translations bool `yaml:"translations"`

	// Uncertain controls whether a string with multiple distinct
	// existing translations is reused at all. false (the default)
	// skips reuse when the candidate is ambiguous.
	Uncertain bool `yaml:"uncertain"`

	// AsFuzzy lists languages for which a reused translation is always
	// marked fuzzy, regardless of AsFuzzyDefault.
	AsFuzzy []string `yaml:"as_fuzzy"`

	// AsFuzzyDefault marks every reused translation fuzzy unless its
	// language appears in AsNotFuzzy.
	AsFuzzyDefault bool `yaml:"as_fuzzy_default"`

	// AsNotFuzzy lists languages exempted from AsFuzzyDefault.
	AsNotFuzzy []string `yaml:"as_not_fuzzy"`
}

// DefaultWalk returns the include/exclude patterns a new job starts
// with: everything, excluding the usual non-source directories.
func DefaultWalk() WalkConfig {
	return WalkConfig{
		Include: []string{},
		Exclude: []string{
			".git/**",
			"node_modules/**", "vendor/**",
			"dist/**", "build/**", "bin/**", "**/bin/**", "out/**",
			".idea/**", ".vscode/**", "*.swp", "*.swo",
			".lsync/**",
		},
		MaxFileSize: 1048576,
	}
}

// DefaultJob returns a config with sensible defaults for a new job;
// Namespace, JobID, SourceDir and Languages are left for the caller to
// fill in since they have no safe default.
func DefaultJob() Job {
	return Job{
		Walk:           DefaultWalk(),
		Reuse:          ReuseConfig{Translations: true, AsFuzzyDefault: true},
		OutputEncoding: "UTF-8",
	}
}

// Load reads and decodes a job config from path, filling in defaults
// for any field the file omits.
func Load(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read config %s: %w", path, err)
	}

	job := DefaultJob()
	if err := yaml.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if job.Namespace == "" {
		return Job{}, fmt.Errorf("config %s: namespace is required", path)
	}
	if job.JobID == "" {
		return Job{}, fmt.Errorf("config %s: job_id is required", path)
	}
	if job.SourceDir == "" {
		return Job{}, fmt.Errorf("config %s: source_dir is required", path)
	}
	if len(job.Languages) == 0 {
		return Job{}, fmt.Errorf("config %s: languages must list at least one destination language", path)
	}
	if job.ParserFormat == "" {
		return Job{}, fmt.Errorf("config %s: parser_format is required", path)
	}

	return job, nil
}
