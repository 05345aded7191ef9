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

// Package metrics exposes Prometheus counters and histograms for the
// engine pipeline: scan deltas, TS regeneration, localized file
// writes, and USN bumps.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// engineMetrics holds the pipeline's Prometheus metrics.
type engineMetrics struct {
	once sync.Once

	// Scan deltas
	filesAdded       prometheus.Counter
	filesModified    prometheus.Counter
	filesRenamed     prometheus.Counter
	filesOrphaned    prometheus.Counter
	filesResurrected prometheus.Counter

	// Items/strings
	itemsCreated  prometheus.Counter
	itemsOrphaned prometheus.Counter

	// TS files
	tsRegenerated prometheus.Counter
	tsSkipped     prometheus.Counter

	// Localized files
	localizedWritten prometheus.Counter
	localizedSkipped prometheus.Counter

	// Fuzzy reuse
	reuseApplied          prometheus.Counter
	reuseSkippedUncertain prometheus.Counter

	// USN
	usnBumps prometheus.Counter

	// Durations
	scanDuration     prometheus.Histogram
	tsGenDuration    prometheus.Histogram
	localizeDuration prometheus.Histogram
	jobDuration      prometheus.Histogram
}

var m engineMetrics

// Init registers every metric with the default Prometheus registry.
// Safe to call more than once; registration happens exactly once.
func Init() {
	m.once.Do(func() {
		m.filesAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_scan_files_added_total", Help: "Files newly discovered by the source scan"})
		m.filesModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_scan_files_modified_total", Help: "Files whose content hash changed"})
		m.filesRenamed = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_scan_files_renamed_total", Help: "Files reconciled as renames by content hash"})
		m.filesOrphaned = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_scan_files_orphaned_total", Help: "Known files no longer found on disk"})
		m.filesResurrected = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_scan_files_resurrected_total", Help: "Orphaned files that reappeared"})

		m.itemsCreated = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_items_created_total", Help: "New (file, string) items created"})
		m.itemsOrphaned = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_items_orphaned_total", Help: "Items no longer referenced by their file"})

		m.tsRegenerated = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_ts_regenerated_total", Help: "TS files regenerated"})
		m.tsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_ts_skipped_total", Help: "TS files left unchanged by USN gating"})

		m.localizedWritten = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_localized_written_total", Help: "Localized files written"})
		m.localizedSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_localized_skipped_total", Help: "Localized files left unchanged by hash/mtime gating"})

		m.reuseApplied = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_reuse_applied_total", Help: "Translations filled in via fuzzy reuse"})
		m.reuseSkippedUncertain = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_reuse_skipped_uncertain_total", Help: "Fuzzy reuse skipped due to ambiguous candidates"})

		m.usnBumps = prometheus.NewCounter(prometheus.CounterOpts{Name: "lsync_usn_bumps_total", Help: "Update sequence number increments"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "lsync_scan_seconds", Help: "Source tree scan duration", Buckets: buckets})
		m.tsGenDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "lsync_ts_generate_seconds", Help: "TS file generation duration", Buckets: buckets})
		m.localizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "lsync_localize_seconds", Help: "Localized file generation duration", Buckets: buckets})
		m.jobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "lsync_job_seconds", Help: "Total job duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesAdded, m.filesModified, m.filesRenamed, m.filesOrphaned, m.filesResurrected,
			m.itemsCreated, m.itemsOrphaned,
			m.tsRegenerated, m.tsSkipped,
			m.localizedWritten, m.localizedSkipped,
			m.reuseApplied, m.reuseSkippedUncertain,
			m.usnBumps,
			m.scanDuration, m.tsGenDuration, m.localizeDuration, m.jobDuration,
		)
	})
}

func FileAdded()       { Init(); m.filesAdded.Inc() }
func FileModified()    { Init(); m.filesModified.Inc() }
func FileRenamed()     { Init(); m.filesRenamed.Inc() }
func FileOrphaned()    { Init(); m.filesOrphaned.Inc() }
func FileResurrected() { Init(); m.filesResurrected.Inc() }

func ItemCreated()  { Init(); m.itemsCreated.Inc() }
func ItemOrphaned() { Init(); m.itemsOrphaned.Inc() }

func TSRegenerated() { Init(); m.tsRegenerated.Inc() }
func TSSkipped()     { Init(); m.tsSkipped.Inc() }

func LocalizedWritten() { Init(); m.localizedWritten.Inc() }
func LocalizedSkipped() { Init(); m.localizedSkipped.Inc() }

func ReuseApplied()          { Init(); m.reuseApplied.Inc() }
func ReuseSkippedUncertain() { Init(); m.reuseSkippedUncertain.Inc() }

func USNBump() { Init(); m.usnBumps.Inc() }

func ObserveScan(seconds float64)     { Init(); m.scanDuration.Observe(seconds) }
func ObserveTSGen(seconds float64)    { Init(); m.tsGenDuration.Observe(seconds) }
func ObserveLocalize(seconds float64) { Init(); m.localizeDuration.Observe(seconds) }
func ObserveJob(seconds float64)      { Init(); m.jobDuration.Observe(seconds) }
