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

// Package main implements the lsync CLI.
//
// Usage:
//
//	lsync init  --config lsync.yaml    Create the job's translation store
//	lsync run   --config lsync.yaml    Run one sync pass
//	lsync status --config lsync.yaml   Show job status [--json]
//	lsync reset  --config lsync.yaml   Delete the job's translation store
package main

import (
	"fmt"
	"os"

	"github.com/kraklabs/lsync/internal/errors"
	"github.com/kraklabs/lsync/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(errors.ExitConfig)
	}

	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "init":
		runInit(args)
	case "run":
		runRun(args)
	case "status":
		runStatus(args)
	case "reset":
		runReset(args)
	case "version", "--version":
		fmt.Printf("lsync %s (commit %s, built %s)\n", version, commit, date)
	case "help", "-h", "--help":
		usage()
	default:
		ui.Errorf("unknown command %q", cmd)
		usage()
		os.Exit(errors.ExitConfig)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: lsync <command> [options]

Commands:
  init     Create the job's translation store
  run      Run one sync pass: scan, ingest, emit TS and localized files
  status   Show job status
  reset    Delete the job's translation store
  version  Print version information

Run "lsync <command> --help" for command-specific options.
`)
}
