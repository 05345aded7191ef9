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

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/lsync/internal/bootstrap"
	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/errors"
	"github.com/kraklabs/lsync/internal/output"
	"github.com/kraklabs/lsync/internal/ui"
	"github.com/kraklabs/lsync/pkg/engine"
	"github.com/kraklabs/lsync/pkg/store"
)

// StatusResult is the job status in a form suitable for --json output.
type StatusResult struct {
	Namespace            string `json:"namespace"`
	JobID                string `json:"job_id"`
	StorePath            string `json:"store_path"`
	Files                int    `json:"files"`
	OrphanedFiles        int    `json:"orphaned_files"`
	Items                int    `json:"items"`
	OptimizationsEnabled bool   `json:"optimizations_enabled"`
}

func runStatus(args []string) {
	fs := pflag.NewFlagSet("status", pflag.ExitOnError)
	configPath := fs.StringP("config", "c", "lsync.yaml", "Path to the job's YAML configuration")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitConfig)
	}

	ui.InitColors(*noColor)

	job, err := config.Load(*configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load job configuration", err.Error(), "", err), *jsonOutput)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	raw, err := bootstrap.OpenJob(jobConfig(job), logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot open job store", err.Error(), "run \"lsync init --config "+*configPath+"\" first", err), *jsonOutput)
	}
	defer raw.Close()

	cs, err := store.NewCachedStore(raw)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot wrap job store", err.Error(), "", err), *jsonOutput)
	}

	files, err := cs.ListFiles(job.Namespace, job.JobID)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot list job files", err.Error(), "", err), *jsonOutput)
	}

	res := StatusResult{Namespace: job.Namespace, JobID: job.JobID, StorePath: job.StorePath, Files: len(files)}
	for _, f := range files {
		if f.Orphaned {
			res.OrphanedFiles++
		}
		itemIDs, err := cs.ItemsForFile(f.ID)
		if err != nil {
			errors.FatalError(errors.NewDatabaseError("cannot count items", err.Error(), "", err), *jsonOutput)
		}
		res.Items += len(itemIDs)
	}

	enabled, err := engine.OptimizationsEnabled(cs, job)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot read job fingerprint", err.Error(), "", err), *jsonOutput)
	}
	res.OptimizationsEnabled = enabled

	if *jsonOutput {
		if err := output.JSON(res); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	ui.Header("lsync job status")
	ui.Infof("job:           %s/%s", res.Namespace, res.JobID)
	ui.Infof("files:         %s (%s orphaned)", ui.CountText(res.Files), ui.CountText(res.OrphanedFiles))
	ui.Infof("items:         %s", ui.CountText(res.Items))
	ui.Infof("optimizations: %s", onOff(res.OptimizationsEnabled))
}
