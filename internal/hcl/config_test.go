// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"context"
	"testing"

	"github.com/Azure/golden"
	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFs(t *testing.T, fs afero.Fs) {
	t.Helper()

	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return fs
	})
	t.Cleanup(stubs.Reset)
}

func dummyFsWithFiles(fs afero.Fs, fileNames []string, contents []string) {
	for i := range fileNames {
		_ = afero.WriteFile(fs, fileNames[i], []byte(contents[i]), 0644)
	}
}

func buildPlan(t *testing.T, content string) *SwarmPlan {
	t.Helper()

	return buildPlanWithVars(t, content, nil)
}

func buildPlanWithVars(t *testing.T, content string, vars []golden.CliFlagAssignedVariables) *SwarmPlan {
	t.Helper()

	fs := afero.NewMemMapFs()
	dummyFsWithFiles(fs, []string{"test.swarm.hcl"}, []string{content})
	stubFs(t, fs)

	config, err := BuildSwarmConfig(context.Background(), "/", "", vars)
	require.NoError(t, err)

	sp, err := RunSwarmPlan(config)
	require.NoError(t, err)

	return sp
}

func Test_planDecode(t *testing.T) {
	content := `
variable "depth_limit" {
  default = 2
}

locals {
  backend_folders = ["cmd/api", "internal/api"]
}

plan "backend" {
  summary        = "Backend review, depth ${var.depth_limit}"
  analysis_order = ["storage", "api"]

  grouping {
    name     = "api"
    folders  = local.backend_folders
    priority = 2
  }

  grouping {
    name    = "storage"
    folders = ["internal/db"]
  }
}
	`

	sp := buildPlan(t, content)
	require.Len(t, sp.Plans, 1)

	pb := sp.Plans[0]
	assert.Equal(t, "backend", pb.Name())
	assert.Equal(t, "Backend review, depth 2", pb.Summary)
	assert.Equal(t, []string{"storage", "api"}, pb.AnalysisOrder)
	require.Len(t, pb.Groupings, 2)
	assert.Equal(t, "api", pb.Groupings[0].Name)
	assert.Equal(t, []string{"cmd/api", "internal/api"}, pb.Groupings[0].Folders)
	assert.Equal(t, 2, pb.Groupings[0].Priority)

	p, err := pb.Plan()
	require.NoError(t, err)
	assert.Equal(t, "Backend review, depth 2", p.Summary)
	require.Len(t, p.Groupings, 2)
	assert.Equal(t, plan.DefaultPriority, p.Groupings[1].Priority, "unset priority is normalized")
}

func Test_planWithDynamicGrouping(t *testing.T) {
	content := `
variable "parts" {
  type    = list(string)
  default = ["api", "storage", "auth"]
}

plan "split" {
  summary = "One worker per part"

  dynamic "grouping" {
    for_each = var.parts
    content {
      name    = grouping.value
      folders = ["internal/${grouping.value}"]
    }
  }
}
	`

	sp := buildPlan(t, content)
	require.Len(t, sp.Plans, 1)
	require.Len(t, sp.Plans[0].Groupings, 3)

	expected := []string{"api", "storage", "auth"}
	for i, name := range expected {
		assert.Equal(t, name, sp.Plans[0].Groupings[i].Name)
		assert.Equal(t, []string{"internal/" + name}, sp.Plans[0].Groupings[i].Folders)
	}
}

func Test_noConfigFile(t *testing.T) {
	stubFs(t, afero.NewMemMapFs())

	_, err := BuildSwarmConfig(context.Background(), "/", "", nil)
	require.ErrorIs(t, err, ErrNoSwarmConfigFile)
}

func Test_parseError(t *testing.T) {
	fs := afero.NewMemMapFs()
	dummyFsWithFiles(fs, []string{"broken.swarm.hcl"}, []string{`plan "x" {`})
	stubFs(t, fs)

	_, err := BuildSwarmConfig(context.Background(), "/", "", nil)
	require.ErrorIs(t, err, ErrParseSwarmConfigFile)
}

func Test_invalidBlockType(t *testing.T) {
	content := `
workflow "legacy" {
  description = "not a swarm block"
}
	`

	fs := afero.NewMemMapFs()
	dummyFsWithFiles(fs, []string{"test.swarm.hcl"}, []string{content})
	stubFs(t, fs)

	_, err := BuildSwarmConfig(context.Background(), "/", "", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid block type: workflow")
}

func Test_selected(t *testing.T) {
	content := `
plan "backend" {
  grouping {
    name    = "api"
    folders = ["cmd/api"]
  }
}

plan "frontend" {
  grouping {
    name    = "web"
    folders = ["web"]
  }
}
	`

	sp := buildPlan(t, content)
	require.Len(t, sp.Plans, 2)

	_, err := sp.Selected("")
	require.ErrorIs(t, err, ErrPlanSelection)

	pb, err := sp.Selected("frontend")
	require.NoError(t, err)
	assert.Equal(t, "frontend", pb.Name())

	_, err = sp.Selected("ghost")
	require.ErrorIs(t, err, ErrPlanSelection)
}

func Test_selectedSinglePlan(t *testing.T) {
	content := `
plan "only" {
  grouping {
    name    = "api"
    folders = ["cmd/api"]
  }
}
	`

	sp := buildPlan(t, content)

	pb, err := sp.Selected("")
	require.NoError(t, err)
	assert.Equal(t, "only", pb.Name())
}

func Test_planValidation(t *testing.T) {
	content := `
plan "dupes" {
  grouping {
    name    = "api"
    folders = ["cmd/api"]
  }

  grouping {
    name    = "api"
    folders = ["internal/api"]
  }
}
	`

	sp := buildPlan(t, content)
	require.Len(t, sp.Plans, 1)

	_, err := sp.Plans[0].Plan()
	require.ErrorIs(t, err, plan.ErrDuplicateGroupingName)
}
