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
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/fswalk"
	"github.com/kraklabs/lsync/internal/metrics"
	"github.com/kraklabs/lsync/internal/textnorm"
	"github.com/kraklabs/lsync/pkg/store"
)

// ScanResult summarizes one source-tree reconciliation pass.
type ScanResult struct {
	// Found maps each found file's relative path to its File row,
	// after rename reconciliation: added, matched, and renamed files
	// all appear here under their current path.
	Found map[string]*store.File

	Added     []string
	Modified  []string
	Renamed   map[string]string // old path -> new path
	Orphaned  []string
	Resurrected []string
}

// RewritePath is the rewrite_path hook's signature: given the raw
// relative path a walk discovered, it may return a remapped path.
type RewritePath func(relPath string) string

// Scan walks job.SourceDir, reconciles the result against the store's
// known files for (job.Namespace, job.JobID), and resolves renames by
// content hash within same-size groups. It never deletes a File row;
// files no longer found are marked orphaned, and a known orphaned file
// whose path reappears unchanged is resurrected.
func Scan(s *store.CachedStore, job config.Job, rewritePath RewritePath) (*ScanResult, error) {
	foundPaths, err := fswalk.Walk(job.SourceDir, fswalk.Options{
		Include:     job.Walk.Include,
		Exclude:     job.Walk.Exclude,
		MaxFileSize: job.Walk.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("walk source tree: %w", err)
	}

	absByRel := make(map[string]string, len(foundPaths))
	rel := make([]string, 0, len(foundPaths))
	for _, p := range foundPaths {
		mapped := p
		if rewritePath != nil {
			mapped = rewritePath(p)
		}
		absByRel[mapped] = filepath.Join(job.SourceDir, p)
		rel = append(rel, mapped)
	}
	sort.Strings(rel)

	known, err := s.ListFiles(job.Namespace, job.JobID)
	if err != nil {
		return nil, fmt.Errorf("list known files: %w", err)
	}
	knownByPath := make(map[string]*store.File, len(known))
	allKnownIDs := roaring.New()
	for i := range known {
		f := &known[i]
		knownByPath[f.RelPath] = f
		allKnownIDs.Add(uint32(f.ID))
	}

	result := &ScanResult{
		Found:   make(map[string]*store.File, len(rel)),
		Renamed: make(map[string]string),
	}
	matchedIDs := roaring.New()

	// Pass 1: direct path matches (added/modified/resurrected).
	unmatchedRel := make([]string, 0, len(rel))
	for _, p := range rel {
		f, ok := knownByPath[p]
		if !ok {
			unmatchedRel = append(unmatchedRel, p)
			continue
		}
		matchedIDs.Add(uint32(f.ID))
		result.Found[p] = f
		if f.Orphaned {
			if err := s.SetFileOrphaned(f.ID, false); err != nil {
				return nil, fmt.Errorf("un-orphan %s: %w", p, err)
			}
			f.Orphaned = false
			result.Resurrected = append(result.Resurrected, p)
			metrics.FileResurrected()
		}

		hash, err := contentHash(absByRel[p])
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", p, err)
		}
		prevHash, hadPrev, err := s.CachedProperty(store.SourceHashKey(f.ID))
		if err != nil {
			return nil, fmt.Errorf("read source hash for file %d: %w", f.ID, err)
		}
		if !hadPrev || prevHash != hash {
			result.Modified = append(result.Modified, p)
			metrics.FileModified()
		}
	}

	// Candidates for rename matching: known files not matched by path.
	unmatchedKnownBySize := map[int64][]*store.File{}
	for i := range known {
		f := &known[i]
		if matchedIDs.Contains(uint32(f.ID)) {
			continue
		}
		sizeStr, ok, err := s.CachedProperty(store.SizeKey(f.ID))
		if err != nil {
			return nil, fmt.Errorf("read size property for file %d: %w", f.ID, err)
		}
		if !ok {
			continue
		}
		var size int64
		fmt.Sscanf(sizeStr, "%d", &size)
		unmatchedKnownBySize[size] = append(unmatchedKnownBySize[size], f)
	}

	// Pass 2: rename reconciliation by content hash within size class.
	var stillUnmatched []string
	for _, p := range unmatchedRel {
		abs := absByRel[p]
		info, err := os.Stat(abs)
		if err != nil {
			stillUnmatched = append(stillUnmatched, p)
			continue
		}
		candidates := unmatchedKnownBySize[info.Size()]
		if len(candidates) == 0 {
			stillUnmatched = append(stillUnmatched, p)
			continue
		}

		hash, err := contentHash(abs)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", p, err)
		}

		renamedFrom := (*store.File)(nil)
		for _, cand := range candidates {
			candHash, ok, err := s.CachedProperty(store.SourceHashKey(cand.ID))
			if err != nil {
				return nil, fmt.Errorf("read source hash for file %d: %w", cand.ID, err)
			}
			if ok && candHash == hash {
				renamedFrom = cand
				break
			}
		}

		if renamedFrom == nil {
			stillUnmatched = append(stillUnmatched, p)
			continue
		}

		oldPath := renamedFrom.RelPath
		if err := s.UpdateFilePath(renamedFrom.ID, p); err != nil {
			return nil, fmt.Errorf("rename file %d to %s: %w", renamedFrom.ID, p, err)
		}
		s.InvalidateFilePath(job.Namespace, job.JobID, oldPath, p, renamedFrom.ID)
		renamedFrom.RelPath = p
		if renamedFrom.Orphaned {
			if err := s.SetFileOrphaned(renamedFrom.ID, false); err != nil {
				return nil, fmt.Errorf("un-orphan renamed file %d: %w", renamedFrom.ID, err)
			}
			renamedFrom.Orphaned = false
		}

		matchedIDs.Add(uint32(renamedFrom.ID))
		// remove from the size-class pool so it can't match twice
		pool := unmatchedKnownBySize[info.Size()]
		for i, c := range pool {
			if c.ID == renamedFrom.ID {
				unmatchedKnownBySize[info.Size()] = append(pool[:i], pool[i+1:]...)
				break
			}
		}

		result.Found[p] = renamedFrom
		result.Renamed[oldPath] = p
		metrics.FileRenamed()
	}

	// Remaining unmatched found paths are genuinely new files.
	for _, p := range stillUnmatched {
		fileID, _, err := s.CachedFileID(job.Namespace, job.JobID, p, false)
		if err != nil {
			return nil, fmt.Errorf("create file row for %s: %w", p, err)
		}
		f, err := s.GetFile(fileID)
		if err != nil {
			return nil, fmt.Errorf("load created file %s: %w", p, err)
		}
		result.Found[p] = f
		matchedIDs.Add(uint32(fileID))
		result.Added = append(result.Added, p)
		metrics.FileAdded()
	}

	// Files known but never matched this run are orphaned.
	orphanedIDs := roaring.AndNot(allKnownIDs, matchedIDs)
	it := orphanedIDs.Iterator()
	for it.HasNext() {
		id := int64(it.Next())
		f, err := s.GetFile(id)
		if err != nil {
			return nil, fmt.Errorf("load orphan candidate %d: %w", id, err)
		}
		if f == nil || f.Orphaned {
			continue
		}
		if err := s.SetFileOrphaned(id, true); err != nil {
			return nil, fmt.Errorf("orphan file %d: %w", id, err)
		}
		result.Orphaned = append(result.Orphaned, f.RelPath)
		metrics.FileOrphaned()
	}

	sort.Strings(result.Added)
	sort.Strings(result.Modified)
	sort.Strings(result.Orphaned)
	sort.Strings(result.Resurrected)

	return result, nil
}

// contentHash returns the hex MD5 digest of a file's normalized
// content. Spec's wire format fixes MD5 for rename detection and
// string keys, not the teacher's SHA-256 convention used elsewhere in
// this codebase.
func contentHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := textnorm.Normalize(data)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}
