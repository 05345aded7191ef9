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

// Package bootstrap handles lsync job initialization and setup.
//
// This internal package creates the sqlite-backed translation store with
// the required schema and ensures all prerequisites are met before a job
// can run.
//
// # Initialization Workflow
//
//	info, err := bootstrap.InitJob(bootstrap.JobConfig{JobID: "myapp"}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Job initialized at: %s\n", info.StorePath)
//
//	s, err := bootstrap.OpenJob(bootstrap.JobConfig{JobID: "myapp"}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
// # Idempotency
//
// InitJob is idempotent: calling it multiple times against the same job
// is safe and will not corrupt existing data.
//
// # Configuration
//
// JobConfig controls initialization behavior:
//
//   - JobID: Required. Logical identifier for the job.
//   - StorePath: Optional. Defaults to ~/.lsync/data/<job_id>/translations.db.
//
// # Job Discovery
//
//	jobs, err := bootstrap.ListJobs()
//	for _, id := range jobs {
//	    fmt.Println(id)
//	}
package bootstrap
