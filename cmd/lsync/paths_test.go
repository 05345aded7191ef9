// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/lsync/internal/config"
	"github.com/kraklabs/lsync/pkg/parser/plaintext"
	"github.com/kraklabs/lsync/pkg/parser/sourcestrings"
)

func TestResolveParserKnownFormats(t *testing.T) {
	p, ok := resolveParser("plaintext")
	require.True(t, ok)
	require.IsType(t, &plaintext.Parser{}, p)

	p, ok = resolveParser("GO")
	require.True(t, ok)
	require.IsType(t, &sourcestrings.Parser{}, p)

	_, ok = resolveParser("unknown")
	require.False(t, ok)
}

func TestResolveDirDefaultsToSourceDir(t *testing.T) {
	require.Equal(t, "/src", resolveDir("/src", ""))
	require.Equal(t, "/src/ts", resolveDir("/src", "ts"))
	require.Equal(t, "/abs/ts", resolveDir("/src", "/abs/ts"))
}

func TestTSPathAndOutputPathJoinLangAndRelPath(t *testing.T) {
	job := config.Job{SourceDir: "/src", TSDir: "ts", OutputDir: "out"}
	tsPath := tsPathFunc(job)
	outPath := outputPathFunc(job)

	require.Equal(t, "/src/ts/fr/a.txt.ts", tsPath("a.txt", "fr"))
	require.Equal(t, "/src/out/fr/a.txt", outPath("a.txt", "fr"))
}

func TestJobConfigNamespaceQualifiesJobID(t *testing.T) {
	job := config.Job{Namespace: "ns", JobID: "job1"}
	jc := jobConfig(job)
	require.Equal(t, "ns/job1", jc.JobID)
}
