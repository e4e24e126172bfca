// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show contains the swarm show command.
package show

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/matt-FFFFFF/swarm/internal/runswarm"
	"github.com/urfave/cli/v3"
)

const (
	fileArg = "file"

	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
)

var (
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrDecodeSummary is returned when the summary cannot be decoded from the file.
	ErrDecodeSummary = errors.New("failed to decode summary")
	// ErrWriteSummary is returned when the summary cannot be written.
	ErrWriteSummary = errors.New("failed to write summary")
)

// ShowCmd is the command that displays a run summary previously saved with
// `swarm run --save`.
var ShowCmd = &cli.Command{
	Name:        "show",
	Description: "Show a previously saved run summary.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name: fileArg,
		},
	},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:        outputSuccessDetailsFlag,
			Aliases:     []string{"success"},
			Usage:       "Include successful worker details in the output",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        noOutputStdErrFlag,
			Aliases:     []string{"no-stderr"},
			Usage:       "Exclude worker stderr output in the results",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        outputStdOutFlag,
			Aliases:     []string{"stdout"},
			Usage:       "Include worker stdout output in the results",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Action: func(_ context.Context, cmd *cli.Command) error {
		opts := runswarm.DefaultOutputOptions()
		opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
		opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
		opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

		return showSummary(cmd.StringArg(fileArg), cmd.Writer, opts)
	},
}

// showSummary reads a saved summary and renders it as text.
func showSummary(path string, w io.Writer, opts *runswarm.OutputOptions) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Join(ErrReadFile, err)
	}

	defer file.Close() // nolint:errcheck

	summary, err := runswarm.ReadSummaryGob(file)
	if err != nil {
		return errors.Join(ErrDecodeSummary, err)
	}

	if err := summary.WriteText(w, opts); err != nil {
		return errors.Join(ErrWriteSummary, err)
	}

	return nil
}
