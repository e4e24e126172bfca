// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config contains the swarm config command.
package config

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/matt-FFFFFF/swarm/internal/hcl"
	"github.com/urfave/cli/v3"
)

const (
	dirArg = "dir"

	debugFlag   = "debug"
	varFlag     = "var"
	varFileFlag = "var-file"

	cliExitStr = ""
)

// ConfigCmd is the command that validates an HCL configuration directory
// and shows the plans it resolves to.
var ConfigCmd = &cli.Command{
	Name:  "config",
	Usage: "Validate an HCL configuration directory and show its plans",
	Description: `Load every *.swarm.hcl file in a directory, resolve variables and
expressions, and print the plans the configuration defines. Use this to check a
configuration before running it.

With --debug an interactive session is started instead, in which HCL
expressions are evaluated against the loaded configuration.
`,
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:  dirArg,
			Value: ".",
		},
	},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:        debugFlag,
			Usage:       "Evaluate HCL expressions interactively against the loaded configuration",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.StringSliceFlag{
			Name:  varFlag,
			Usage: "Set an HCL configuration variable as name=value. Specify multiple times for multiple variables.",
		},
		&cli.StringSliceFlag{
			Name:      varFileFlag,
			Usage:     "Read HCL configuration variables from a file. Specify multiple times for multiple files.",
			TakesFile: true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running config command")

	dir := cmd.StringArg(dirArg)
	if dir == "" {
		dir = "."
	}

	vars, err := hcl.NewCliFlagVariables(cmd.StringSlice(varFlag), cmd.StringSlice(varFileFlag))
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	cfg, err := hcl.BuildSwarmConfig(ctx, dir, dir, vars)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to load configuration from %s: %s", dir, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	if cmd.Bool(debugFlag) {
		hcl.EnterDebugMode(cfg)
		return nil
	}

	swarmPlan, err := hcl.RunSwarmPlan(cfg)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to evaluate configuration: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	if err := writePlans(cmd.Writer, swarmPlan); err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// writePlans renders every resolved plan for human inspection. Invalid
// plans are reported together rather than stopping at the first.
func writePlans(w io.Writer, sp *hcl.SwarmPlan) error {
	fmt.Fprintf(w, "%d plan(s) defined\n", len(sp.Plans)) //nolint:errcheck

	var errs *multierror.Error

	for _, b := range sp.Plans {
		fmt.Fprintf(w, "\nplan %q\n", b.Name()) //nolint:errcheck

		p, err := b.Plan()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("plan %q: %w", b.Name(), err))
			continue
		}

		if p.Summary != "" {
			fmt.Fprintf(w, "  summary: %s\n", p.Summary) //nolint:errcheck
		}

		if len(p.AnalysisOrder) > 0 {
			fmt.Fprintf(w, "  analysis order: %s\n", strings.Join(p.AnalysisOrder, ", ")) //nolint:errcheck
		}

		for _, g := range p.Groupings {
			fmt.Fprintf(w, "  grouping %q (priority %d): %s\n", //nolint:errcheck
				g.Name, g.Priority, strings.Join(g.Folders, ", "))
		}
	}

	return errs.ErrorOrNil()
}
