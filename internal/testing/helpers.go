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

package testing

import (
	"path/filepath"
	"testing"

	"github.com/kraklabs/lsync/pkg/store"
)

// SetupTestStore creates a CachedStore backed by a temp-dir sqlite
// file. The store is closed automatically when the test finishes.
func SetupTestStore(t *testing.T) *store.CachedStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "translations.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	cs, err := store.NewCachedStore(s)
	if err != nil {
		t.Fatalf("failed to wrap test store: %v", err)
	}
	return cs
}

// SeedTranslation is a convenience helper that resolves (or creates)
// a File, a String, an Item, and a Translation in one call — the
// common seeding shape most engine/emission tests need.
func SeedTranslation(t *testing.T, cs *store.CachedStore, namespace, jobID, relPath, text, context, lang, translation string) int64 {
	t.Helper()

	fileID, _, err := cs.CachedFileID(namespace, jobID, relPath, false)
	if err != nil {
		t.Fatalf("failed to resolve test file: %v", err)
	}
	stringID, _, err := cs.CachedStringID(text, context, false)
	if err != nil {
		t.Fatalf("failed to resolve test string: %v", err)
	}
	itemID, _, err := cs.GetItemID(fileID, stringID, false)
	if err != nil {
		t.Fatalf("failed to resolve test item: %v", err)
	}
	if translation != "" {
		if err := cs.UpsertTranslation(itemID, lang, translation, false, ""); err != nil {
			t.Fatalf("failed to seed test translation: %v", err)
		}
	}
	return itemID
}

// QueryFiles is a helper to list all files for (namespace, jobID).
func QueryFiles(t *testing.T, cs *store.CachedStore, namespace, jobID string) []store.File {
	t.Helper()
	files, err := cs.ListFiles(namespace, jobID)
	if err != nil {
		t.Fatalf("failed to query files: %v", err)
	}
	return files
}
