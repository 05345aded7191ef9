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

// Package store is the translation database. It persists the five
// entities the engine reconciles against (String, File, Item,
// Translation, Property) plus the USN change oracle, behind two
// layers:
//
//   - SQLStore: raw CRUD against an embedded modernc.org/sqlite file,
//     one row per entity operation.
//   - CachedStore: the identity-map layer the Engine actually talks
//     to, holding one LRU per entity kind plus the two uncapped
//     all_items/all_files maps a job preloads once at start.
//
// The items and translations tables carry a usn column, stamped from
// the single monotonic usn_counter sequence;
// HighestUSNForFileLang takes the max across an item's own usn and its
// per-language translation's usn, which is what TS emission gates on.
package store
