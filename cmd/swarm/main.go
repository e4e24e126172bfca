// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the swarm command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/swarm"
	"github.com/matt-FFFFFF/swarm/cmd/swarm/config"
	"github.com/matt-FFFFFF/swarm/cmd/swarm/run"
	"github.com/matt-FFFFFF/swarm/cmd/swarm/schema"
	"github.com/matt-FFFFFF/swarm/cmd/swarm/show"
	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		config.ConfigCmd,
		run.RunCmd,
		schema.SchemaCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "swarm",
	Description: `Swarm fans out parallel AI agent processes across named groupings of a
codebase, monitors them with retries and resource sampling, and merges the
successful analysis reports into a single document via one more agent
invocation. Plans are YAML or HCL files that declare the groupings; the
agent is any executable that reads instructions on stdin and writes a
report to stdout.`,
	Usage:     "swarm run --plan plan.yaml --agent claude --out REPORT.md",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	defer cancel()

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", swarm.Version, swarm.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}
