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
	"github.com/kraklabs/lsync/internal/ui"
)

func runReset(args []string) {
	fs := pflag.NewFlagSet("reset", pflag.ExitOnError)
	configPath := fs.StringP("config", "c", "lsync.yaml", "Path to the job's YAML configuration")
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitConfig)
	}

	ui.InitColors(*noColor)

	if !*confirm {
		ui.Error("pass --yes to confirm: this deletes the job's translation store")
		os.Exit(errors.ExitConfig)
	}

	job, err := config.Load(*configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load job configuration", err.Error(), "", err), false)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	raw, err := bootstrap.OpenJob(jobConfig(job), logger)
	if err != nil {
		ui.Warning("job store not found, nothing to reset")
		return
	}
	storePath := ""
	if job.StorePath != "" {
		storePath = job.StorePath
	}
	raw.Close()

	if storePath == "" {
		info, err := bootstrap.InitJob(jobConfig(job), logger)
		if err != nil {
			errors.FatalError(errors.NewDatabaseError("cannot resolve job store path", err.Error(), "", err), false)
		}
		storePath = info.StorePath
	}

	if err := os.Remove(storePath); err != nil && !os.IsNotExist(err) {
		errors.FatalError(errors.NewIOError("cannot delete job store", err.Error(), "", err), false)
	}

	ui.Success("job store deleted")
}
