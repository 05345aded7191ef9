// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "fmt"

// The property table is a flat key/value cache of hashes and
// fingerprints. Rather than build keys with ad-hoc string
// concatenation at call sites, every key family gets a typed
// constructor here — the single place that knows the wire format of
// each family.

// SourceHashKey is the normalized content hash of a file as of its
// last successful parse (source:<file_id>).
func SourceHashKey(fileID int64) string { return fmt.Sprintf("source:%d", fileID) }

// SizeKey is the on-disk size of a file as of its last successful
// parse, used to group rename candidates by size class (size:<file_id>).
func SizeKey(fileID int64) string { return fmt.Sprintf("size:%d", fileID) }

// ItemsKey stores the ordered, comma-separated Item IDs belonging to a
// file as of its last successful parse (items:<file_id>).
func ItemsKey(fileID int64) string { return fmt.Sprintf("items:%d", fileID) }

// TSHashKey is the MD5 hash of a TS file's text as last ingested or
// emitted (ts:<file_id>:<lang>).
func TSHashKey(fileID int64, lang string) string { return fmt.Sprintf("ts:%d:%s", fileID, lang) }

// TSCountKey is the number of items written into the last-emitted TS
// file (ts:<file_id>:<lang>:count).
func TSCountKey(fileID int64, lang string) string {
	return fmt.Sprintf("ts:%d:%s:count", fileID, lang)
}

// USNKey is the USN value as of the last TS emission for (file, lang)
// (usn:<file_id>:<lang>).
func USNKey(fileID int64, lang string) string { return fmt.Sprintf("usn:%d:%s", fileID, lang) }

// TargetHashKey is the hash of the rendered localized output as of its
// last write, job-qualified since one File may feed multiple jobs'
// output trees (target:<file_id>:<job_id>:<lang>).
func TargetHashKey(fileID int64, jobID, lang string) string {
	return fmt.Sprintf("target:%d:%s:%s", fileID, jobID, lang)
}

// TargetMtimeKey is the mtime of the localized output file as of its
// last write (target:mtime:<file_id>:<job_id>:<lang>).
func TargetMtimeKey(fileID int64, jobID, lang string) string {
	return fmt.Sprintf("target:mtime:%d:%s:%s", fileID, jobID, lang)
}

// LocalizedSourceHashKey is the source content hash as it was known at
// the time of the last localized emission for this job/lang — distinct
// from SourceHashKey, which the scan stage updates on every parse
// regardless of which job asked. Job-qualified per the design's
// preserved asymmetry (see DESIGN.md open question 2)
// (source:<file_id>:<job_id>:<lang>).
func LocalizedSourceHashKey(fileID int64, jobID, lang string) string {
	return fmt.Sprintf("source:%d:%s:%s", fileID, jobID, lang)
}

// LocalizedTSHashKey is the TS file hash as it was known at the time of
// the last localized emission for this job/lang
// (source:ts:<file_id>:<job_id>:<lang>).
func LocalizedTSHashKey(fileID int64, jobID, lang string) string {
	return fmt.Sprintf("source:ts:%d:%s:%s", fileID, jobID, lang)
}

// JobHashKey is the job fingerprint last successfully committed for
// (namespace, job_id) (job-hash:<ns>:<id>).
func JobHashKey(namespace, jobID string) string { return fmt.Sprintf("job-hash:%s:%s", namespace, jobID) }

// JobEngineKey is the engine version last successfully committed for
// (namespace, job_id) (job-engine:<ns>:<id>).
func JobEngineKey(namespace, jobID string) string {
	return fmt.Sprintf("job-engine:%s:%s", namespace, jobID)
}

// JobPluginKey is the parser/plugin version last successfully
// committed for (namespace, job_id) (job-plugin:<ns>:<id>).
func JobPluginKey(namespace, jobID string) string {
	return fmt.Sprintf("job-plugin:%s:%s", namespace, jobID)
}
