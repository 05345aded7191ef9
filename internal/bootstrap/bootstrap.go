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

// Package bootstrap resolves a job's data directory and opens (or
// creates) its translation store. This is the pipeline's prelude step:
// by the time Run() begins, the store handle is already open and
// schema-checked.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/lsync/pkg/store"
)

// JobConfig holds the subset of job configuration bootstrap needs to
// locate and open a store.
type JobConfig struct {
	// JobID is the logical job identifier (used to namespace the store
	// path when StorePath is not set explicitly).
	JobID string

	// StorePath is the sqlite file path. Defaults to
	// ~/.lsync/data/<job_id>/translations.db
	StorePath string
}

// JobInfo holds information about an opened job.
type JobInfo struct {
	JobID     string
	StorePath string
}

func defaultStorePath(jobID string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".lsync", "data", jobID, "translations.db"), nil
}

// InitJob initializes a new lsync job's store. This function is
// idempotent: calling it multiple times against the same path is safe,
// since store.Open creates schema only if missing.
func InitJob(config JobConfig, logger *slog.Logger) (*JobInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.JobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	storePath := config.StorePath
	if storePath == "" {
		var err error
		storePath, err = defaultStorePath(config.JobID)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("bootstrap.job.init.start", "job_id", config.JobID, "store_path", storePath)

	if err := os.MkdirAll(filepath.Dir(storePath), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s, err := store.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = s.Close() }()

	logger.Info("bootstrap.job.init.success", "job_id", config.JobID, "store_path", storePath)

	return &JobInfo{JobID: config.JobID, StorePath: storePath}, nil
}

// OpenJob opens an existing job's store.
func OpenJob(config JobConfig, logger *slog.Logger) (*store.SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.JobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	storePath := config.StorePath
	if storePath == "" {
		var err error
		storePath, err = defaultStorePath(config.JobID)
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("job not found: %s (run 'lsync init' first)", storePath)
	}

	logger.Debug("bootstrap.job.open", "job_id", config.JobID, "store_path", storePath)

	s, err := store.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return s, nil
}

// ListJobs returns the job IDs found under the default data directory.
func ListJobs() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".lsync", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var jobs []string
	for _, entry := range entries {
		if entry.IsDir() {
			jobs = append(jobs, entry.Name())
		}
	}

	return jobs, nil
}
