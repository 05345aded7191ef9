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

// Package testing provides test helpers for lsync integration tests.
//
// It wraps pkg/store with seeding utilities so engine/tsfile/localize
// tests can set up a small translation store in a couple of lines
// instead of hand-rolling store calls.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    cs := testing.SetupTestStore(t)
//	    testing.SeedTranslation(t, cs, "ns", "job1", "a.txt", "Hello", "", "fr", "Bonjour")
//
//	    files := testing.QueryFiles(t, cs, "ns", "job1")
//	    require.Len(t, files, 1)
//	}
package testing
