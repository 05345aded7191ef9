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
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSetupTestStore verifies the test store is created correctly.
func TestSetupTestStore(t *testing.T) {
	cs := SetupTestStore(t)
	require.NotNil(t, cs)

	files := QueryFiles(t, cs, "ns", "job1")
	require.Empty(t, files, "should start with no files")
}

// TestSeedTranslation verifies the seeding helper resolves all four
// entities and makes the translation visible immediately.
func TestSeedTranslation(t *testing.T) {
	cs := SetupTestStore(t)

	itemID := SeedTranslation(t, cs, "ns", "job1", "a.txt", "Hello", "", "fr", "Bonjour")
	require.NotZero(t, itemID)

	tr, err := cs.GetTranslation(itemID, "fr")
	require.NoError(t, err)
	require.NotNil(t, tr)
	require.Equal(t, "Bonjour", tr.Text)

	files := QueryFiles(t, cs, "ns", "job1")
	require.Len(t, files, 1)
	require.Equal(t, "a.txt", files[0].RelPath)
}
