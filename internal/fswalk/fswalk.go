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

// Package fswalk walks a source tree and returns the relative paths of
// files eligible for scanning, applying include/exclude glob filters
// and basic eligibility checks (regular file, not a symlink, under the
// configured size ceiling).
package fswalk

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Options controls which files Walk returns.
type Options struct {
	// Include, if non-empty, restricts results to paths matching at
	// least one pattern. An empty Include matches everything.
	Include []string

	// Exclude drops any path matching at least one pattern, even if it
	// also matches Include.
	Exclude []string

	// MaxFileSize is the maximum file size in bytes to consider
	// eligible. Zero means no limit.
	MaxFileSize int64
}

// Walk returns the slash-separated, root-relative paths of every
// eligible regular file under root, sorted lexically for deterministic
// processing order.
func Walk(root string, opts Options) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(rel, opts.Include) {
			return nil
		}
		if matchesAny(rel, opts.Exclude) {
			return nil
		}
		if !eligible(path, d, opts.MaxFileSize) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// matchesAny reports whether path matches any of patterns. An empty
// pattern list matches everything (used for Include).
func matchesAny(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matchesGlob(path, pattern) {
			return true
		}
	}
	return false
}

// eligible checks that a directory entry is a regular file, not a
// symlink, and within the size ceiling. Binary files are detected by
// sniffing the first 8KB for a NUL byte.
func eligible(fullPath string, d fs.DirEntry, maxFileSize int64) bool {
	info, err := d.Info()
	if err != nil {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return false
	}
	if !info.Mode().IsRegular() {
		return false
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return false
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return false
	}
	defer f.Close()

	const sniff = 8192
	buf := make([]byte, sniff)
	n, _ := io.ReadFull(f, buf)
	if n > 0 && bytes.IndexByte(buf[:n], 0x00) >= 0 {
		return false
	}
	return true
}

// matchesGlob reports whether a slash-separated path matches a glob
// pattern supporting "**" (any depth), "*" (single path segment or
// substring within a segment), and literal path components.
func matchesGlob(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
		return false
	}

	if strings.HasPrefix(pattern, "*.") && !strings.Contains(pattern, "/") {
		ext := pattern[1:]
		return strings.HasSuffix(path, ext)
	}

	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		if path == suffix || strings.HasSuffix(path, "/"+suffix) {
			return true
		}
		parts := strings.Split(path, "/")
		for i := range parts {
			subpath := strings.Join(parts[i:], "/")
			if matchGlobPattern(subpath, suffix) {
				return true
			}
		}
		return false
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return path == pattern || strings.HasSuffix(path, "/"+pattern) || strings.HasPrefix(path, pattern+"/")
	}

	if matchGlobPattern(path, pattern) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		subpath := strings.Join(parts[i:], "/")
		if matchGlobPattern(subpath, pattern) {
			return true
		}
	}
	return false
}

// matchGlobPattern matches a full path against a pattern using
// filepath.Match per path segment, so a single "*" does not cross a
// "/" boundary while "**" (handled by callers before reaching here)
// can.
func matchGlobPattern(path, pattern string) bool {
	pathParts := strings.Split(path, "/")
	patternParts := strings.Split(pattern, "/")
	if len(pathParts) != len(patternParts) {
		return false
	}
	for i, pp := range patternParts {
		ok, err := filepath.Match(pp, pathParts[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}
