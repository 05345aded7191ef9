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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/lsync/internal/bootstrap"
	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/internal/errors"
	"github.com/kraklabs/lsync/internal/hooks"
	"github.com/kraklabs/lsync/internal/ui"
	"github.com/kraklabs/lsync/pkg/engine"
)

func runRun(args []string) {
	fs := pflag.NewFlagSet("run", pflag.ExitOnError)
	configPath := fs.StringP("config", "c", "lsync.yaml", "Path to the job's YAML configuration")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	verbose := fs.BoolP("verbose", "v", false, "Log debug detail")
	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitConfig)
	}

	ui.InitColors(*noColor)

	job, err := config.Load(*configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"cannot load job configuration", err.Error(),
			"check the path passed to --config and the required fields in lsync.yaml", err), false)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	p, ok := resolveParser(job.ParserFormat)
	if !ok {
		errors.FatalError(errors.NewConfigError(
			"unknown parser_format", fmt.Sprintf("no parser registered for %q", job.ParserFormat),
			"use one of: plaintext, go, python, javascript", nil), false)
	}

	raw, err := bootstrap.OpenJob(jobConfig(job), logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"cannot open job store", err.Error(), "run \"lsync init --config "+*configPath+"\" first", err), false)
	}
	defer raw.Close()

	if err := raw.Begin(); err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot begin transaction", err.Error(), "", err), false)
	}

	bus := hooks.NewBus()
	res, err := engine.Run(raw, logger, bus, job, p, tsPathFunc(job), outputPathFunc(job))
	if err != nil {
		_ = raw.Rollback()
		errors.FatalError(errors.NewInternalError(
			"sync run failed", err.Error(), "check the job log above for the failing file", err), false)
	}

	if err := raw.Commit(); err != nil {
		errors.FatalError(errors.NewDatabaseError("cannot commit transaction", err.Error(), "", err), false)
	}

	printRunSummary(job, res)
}

func printRunSummary(job config.Job, res *engine.RunResult) {
	ui.Header(fmt.Sprintf("lsync run: %s/%s", job.Namespace, job.JobID))
	if res.Scan != nil {
		fmt.Printf("  %s %s, %s %s, %s %s, %s %s\n",
			ui.Label("added:"), ui.CountText(len(res.Scan.Added)),
			ui.Label("modified:"), ui.CountText(len(res.Scan.Modified)),
			ui.Label("renamed:"), ui.CountText(len(res.Scan.Renamed)),
			ui.Label("orphaned:"), ui.CountText(len(res.Scan.Orphaned)))
	}
	fmt.Printf("  %s %s parsed, %s skipped\n", ui.Label("files:"), ui.CountText(res.FilesParsed), ui.CountText(res.FilesSkipped))
	fmt.Printf("  %s %s regenerated, %s skipped\n", ui.Label("ts files:"), ui.CountText(res.TSRegenerated), ui.CountText(res.TSSkipped))
	fmt.Printf("  %s %s written, %s skipped\n", ui.Label("localized files:"), ui.CountText(res.LocalizedWritten), ui.CountText(res.LocalizedSkipped))
	fmt.Printf("  %s %v\n", ui.Label("duration:"), res.Duration)
	ui.Success(fmt.Sprintf("sync complete (optimizations %s)", onOff(res.OptimizationsEnabled)))
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
