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

package main

import (
	"path/filepath"
	"strings"

	"github.com/kraklabs/lsync/internal/bootstrap"
	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/pkg/engine"
	"github.com/kraklabs/lsync/pkg/parser"
	"github.com/kraklabs/lsync/pkg/parser/plaintext"
	"github.com/kraklabs/lsync/pkg/parser/sourcestrings"
)

// jobConfig builds the bootstrap.JobConfig a job's store is opened
// with: JobID is namespace-qualified so two namespaces with the same
// job_id never collide under the default data directory.
func jobConfig(job config.Job) bootstrap.JobConfig {
	return bootstrap.JobConfig{
		JobID:     job.Namespace + "/" + job.JobID,
		StorePath: job.StorePath,
	}
}

// resolveParser looks up the reference Parser implementation a job's
// parser_format names. The core engine only ever consumes
// parser.Parser; which concrete implementation backs a job is this
// collaborator's registry, not the engine's concern.
func resolveParser(format string) (parser.Parser, bool) {
	switch strings.ToLower(format) {
	case "plaintext":
		return plaintext.New(), true
	case "go":
		return sourcestrings.NewGo(), true
	case "python":
		return sourcestrings.NewPython(), true
	case "javascript":
		return sourcestrings.NewJavaScript(), true
	default:
		return nil, false
	}
}

// tsPathFunc and outputPathFunc resolve the TS and localized output
// paths for a job as <dir>/<lang>/<relPath> (with a ".ts" suffix for
// TS files), where <dir> is job.TSDir/job.OutputDir, relative to
// SourceDir unless absolute.
func tsPathFunc(job config.Job) engine.TSPath {
	tsDir := resolveDir(job.SourceDir, job.TSDir)
	return func(relPath, lang string) string {
		return filepath.Join(tsDir, lang, relPath+".ts")
	}
}

func outputPathFunc(job config.Job) engine.OutputPath {
	outDir := resolveDir(job.SourceDir, job.OutputDir)
	return func(relPath, lang string) string {
		return filepath.Join(outDir, lang, relPath)
	}
}

func resolveDir(sourceDir, dir string) string {
	if dir == "" {
		return sourceDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(sourceDir, dir)
}
