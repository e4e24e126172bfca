// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the swarm run command.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azure/golden"
	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/swarm/internal/ctxlog"
	"github.com/matt-FFFFFF/swarm/internal/eventbus"
	"github.com/matt-FFFFFF/swarm/internal/hcl"
	"github.com/matt-FFFFFF/swarm/internal/merge"
	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/matt-FFFFFF/swarm/internal/runswarm"
	"github.com/matt-FFFFFF/swarm/internal/signalbroker"
	"github.com/matt-FFFFFF/swarm/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	planFlag                 = "plan"
	planNameFlag             = "plan-name"
	rootFlag                 = "root"
	outFlag                  = "out"
	agentFlag                = "agent"
	agentArgFlag             = "agent-arg"
	synthFlag                = "synth"
	synthArgFlag             = "synth-arg"
	maxRetriesFlag           = "max-retries"
	workerTimeoutFlag        = "worker-timeout"
	mergeTimeoutFlag         = "merge-timeout"
	tuiFlag                  = "tui"
	saveFlag                 = "save"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	varFlag                  = "var"
	varFileFlag              = "var-file"

	workerTimeoutSecondsDefault = 120
	mergeTimeoutSecondsDefault  = 120
	defaultOutFile              = "REPORT.md"
	hclExt                      = ".hcl"
	cliExitStr                  = ""
)

var (
	// ErrGetPlanFile is returned when the plan file cannot be read.
	ErrGetPlanFile = errors.New("failed to get plan file")
	// ErrBuildPlan is returned when the plan cannot be built from the file.
	ErrBuildPlan = errors.New("failed to build plan")
)

// RunCmd is the command that fans a plan out to parallel agent workers and
// merges their reports.
var RunCmd = &cli.Command{
	Name: "run",
	Description: `Run a swarm: one agent worker per plan grouping, all in parallel.
The plan file declares named groupings of folders to analyze. It is YAML by
default; a path ending in .hcl selects the HCL configuration format, which
supports variables and multiple named plans.

Plan file URLs use Hashicorp's go-getter syntax, which allows for fetching files
from various sources. See https://github.com/hashicorp/go-getter.

Each worker receives its instructions on stdin and is expected to write a
markdown report to stdout. Successful reports are merged into a single document
by one more agent invocation; raw outputs are always preserved in a backup file
under the analysis root.
`,
	Arguments: []cli.Argument{},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    planFlag,
			Aliases: []string{"p"},
			Usage: "Specify the URL of the plan file to run. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources. " +
				"Paths ending in .hcl are loaded as local HCL configuration.",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     planNameFlag,
			Usage:    "Select a plan by name when the HCL configuration defines more than one",
			Value:    "",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      rootFlag,
			Aliases:   []string{"r"},
			Usage:     "Root of the codebase to analyze; becomes the working directory of every worker",
			Value:     ".",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      outFlag,
			Aliases:   []string{"o"},
			Usage:     "Path of the merged report",
			Value:     defaultOutFile,
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     agentFlag,
			Aliases:  []string{"a"},
			Usage:    "Agent executable run for every worker",
			OnlyOnce: true,
		},
		&cli.StringSliceFlag{
			Name:  agentArgFlag,
			Usage: "Argument passed to every agent invocation. Specify multiple times for multiple arguments.",
		},
		&cli.StringFlag{
			Name:     synthFlag,
			Usage:    "Executable for the merge synthesis step. Defaults to the agent executable.",
			Value:    "",
			OnlyOnce: true,
		},
		&cli.StringSliceFlag{
			Name:  synthArgFlag,
			Usage: "Argument passed to the synthesis invocation. Specify multiple times for multiple arguments.",
		},
		&cli.IntFlag{
			Name:     maxRetriesFlag,
			Usage:    "Retry budget per worker after its first attempt",
			Value:    runswarm.DefaultMaxRetries,
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     workerTimeoutFlag,
			Usage:    "Maximum seconds for a single worker attempt",
			Value:    workerTimeoutSecondsDefault,
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     mergeTimeoutFlag,
			Usage:    "Maximum seconds for the merge synthesis process",
			Value:    mergeTimeoutSecondsDefault,
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        tuiFlag,
			Aliases:     []string{"t", "interactive"},
			Usage:       "Run with interactive Terminal User Interface (TUI) showing real-time progress",
			Value:       false,
			DefaultText: "false",
			TakesFile:   false,
			OnlyOnce:    true,
		},
		&cli.StringFlag{
			Name:      saveFlag,
			Usage:     "Save the execution summary to a file for later display with 'swarm show'",
			Value:     "",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:        outputSuccessDetailsFlag,
			Aliases:     []string{"success"},
			Usage:       "Include successful worker details in the output",
			TakesFile:   false,
			DefaultText: "false",
			Value:       false,
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        noOutputStdErrFlag,
			Aliases:     []string{"no-stderr"},
			Usage:       "Exclude worker stderr output in the results",
			Value:       false,
			DefaultText: "false",
			TakesFile:   false,
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        outputStdOutFlag,
			Aliases:     []string{"stdout"},
			Usage:       "Include worker stdout output in the results",
			TakesFile:   false,
			DefaultText: "false",
			Value:       false,
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
	logger.Debug("Running run command")

	planURL := cmd.String(planFlag)
	if planURL == "" {
		logger.Error("Please specify a plan file using the --plan or -p flag.")
		return cli.Exit(cliExitStr, 1)
	}

	agentPath := cmd.String(agentFlag)
	if agentPath == "" {
		logger.Error("Please specify the agent executable using the --agent or -a flag.")
		return cli.Exit(cliExitStr, 1)
	}

	root, err := filepath.Abs(cmd.String(rootFlag))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to resolve root %s: %s", cmd.String(rootFlag), err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	vars, err := hcl.NewCliFlagVariables(cmd.StringSlice(varFlag), cmd.StringSlice(varFileFlag))
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	p, err := loadPlan(ctx, planURL, cmd.String(planNameFlag), vars)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to load plan from %s: %s", planURL, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	// First signal asks the workers to stop, the second force-cancels the
	// whole run.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	canceler := runswarm.NewCanceler()
	sigCh := signalbroker.New(runCtx)

	go signalbroker.Watch(runCtx, sigCh, canceler.Cancel, cancel)

	bus := eventbus.New()

	orchestrator := runswarm.New(runswarm.Options{
		AgentPath:     agentPath,
		AgentArgs:     cmd.StringSlice(agentArgFlag),
		Root:          root,
		MaxRetries:    cmd.Int(maxRetriesFlag),
		WorkerTimeout: time.Duration(cmd.Int(workerTimeoutFlag)) * time.Second,
		Bus:           bus,
		Canceler:      canceler,
	})

	synthPath := cmd.String(synthFlag)
	if synthPath == "" {
		synthPath = agentPath
	}

	coordinator := merge.New(merge.Options{
		SynthPath: synthPath,
		SynthArgs: cmd.StringSlice(synthArgFlag),
		Timeout:   time.Duration(cmd.Int(mergeTimeoutFlag)) * time.Second,
		Bus:       bus,
		Order:     mergeOrder(p),
	})

	outPath := cmd.String(outFlag)

	// The merge runs inside execute so the TUI can display its stages.
	// mergeRes is safe to read after the runner returns: the summary is
	// handed over on a channel.
	var mergeRes merge.Result

	execute := func(ctx context.Context) *runswarm.Summary {
		summary := orchestrator.Execute(ctx, p)
		mergeRes = coordinator.Merge(ctx, summary, root, outPath)

		return summary
	}

	var summary *runswarm.Summary

	switch cmd.Bool(tuiFlag) {
	case true:
		// Run with TUI - use TUI-compatible logger that won't interfere with display
		logger.Info("Starting interactive TUI mode...")

		buf := new(bytes.Buffer)
		tuiCtx := ctxlog.NewForTUI(runCtx, buf)

		runner := tui.NewRunner(p, cmd.Int(maxRetriesFlag), bus, canceler)

		var execErr error

		summary, execErr = runner.Run(tuiCtx, execute)

		buf.WriteTo(cmd.Writer) //nolint:errcheck // Write any buffered log output to the command writer

		if execErr != nil {
			logger.Error(fmt.Sprintf("TUI execution error: %s", execErr.Error()), "error", execErr.Error())
		}
	default:
		subID := bus.SubscribeAll(newConsolePrinter(cmd.Writer))
		summary = execute(runCtx)

		bus.Unsubscribe(subID)
	}

	fallbackFailed := false

	if !mergeRes.Success {
		logger.Error(fmt.Sprintf("Merge failed: %s", mergeRes.Err))

		if mergeRes.BackupPath != "" {
			logger.Info(fmt.Sprintf("Raw worker outputs saved to %s", mergeRes.BackupPath))
		}

		if summary.SuccessCount > 0 {
			fallbackFailed = !writeFallback(logger, summary, outPath, mergeRes.BackupPath)
		}
	}

	if saveFile := cmd.String(saveFlag); saveFile != "" {
		if err := writeSummaryGob(summary, saveFile); err != nil {
			logger.Error(fmt.Sprintf("Failed to save summary to %s: %s", saveFile, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		logger.Info(fmt.Sprintf("Summary written to %s", saveFile))
	}

	opts := runswarm.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	if err := summary.WriteText(cmd.Writer, opts); err != nil {
		logger.Error(fmt.Sprintf("Failed to write results: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	switch {
	case summary.Canceled:
		logger.Error("Run canceled before completion.")
		return cli.Exit(cliExitStr, 1)
	case !mergeRes.Success || fallbackFailed:
		return cli.Exit(cliExitStr, 1)
	case summary.FailedCount > 0:
		logger.Error("Some workers failed. See above for details.")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// writeFallback assembles the non-synthesized fallback document after a
// merge failure. It reports whether the write succeeded; on failure the
// backup artifact is the remaining safety net and is pointed at explicitly.
func writeFallback(logger *slog.Logger, summary *runswarm.Summary, outPath, backupPath string) bool {
	doc := merge.FallbackDocument(summary)

	if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
		logger.Error(fmt.Sprintf("Failed to write fallback report to %s: %s", outPath, err.Error()))

		if backupPath != "" {
			logger.Error(fmt.Sprintf("Raw worker outputs remain available at %s", backupPath))
		}

		return false
	}

	logger.Info(fmt.Sprintf("Fallback report (concatenated, not synthesized) written to %s", outPath))

	return true
}

// writeSummaryGob saves the summary for later display by the show command.
func writeSummaryGob(summary *runswarm.Summary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer f.Close() //nolint:errcheck

	return summary.WriteGob(f)
}

// mergeOrder returns the grouping names in merged-document order.
func mergeOrder(p *plan.Plan) []string {
	ordered := p.OrderedGroupings()

	names := make([]string, 0, len(ordered))
	for _, g := range ordered {
		names = append(names, g.Name)
	}

	return names
}

// loadPlan reads and validates the plan. Paths ending in .hcl are loaded
// as local HCL configuration; anything else is fetched with go-getter and
// decoded as YAML.
func loadPlan(
	ctx context.Context, planURL, planName string, vars []golden.CliFlagAssignedVariables,
) (*plan.Plan, error) {
	if strings.HasSuffix(planURL, hclExt) {
		return loadHclPlan(ctx, planURL, planName, vars)
	}

	data, err := getURL(ctx, planURL)
	if err != nil {
		return nil, err
	}

	p, err := plan.BuildFromYAML(data)
	if err != nil {
		return nil, errors.Join(ErrBuildPlan, err)
	}

	return p, nil
}

// loadHclPlan evaluates the HCL configuration in the plan file's directory
// and selects one plan block.
func loadHclPlan(
	ctx context.Context, path, planName string, vars []golden.CliFlagAssignedVariables,
) (*plan.Plan, error) {
	dir := filepath.Dir(path)

	cfg, err := hcl.BuildSwarmConfig(ctx, dir, dir, vars)
	if err != nil {
		return nil, errors.Join(ErrBuildPlan, err)
	}

	swarmPlan, err := hcl.RunSwarmPlan(cfg)
	if err != nil {
		return nil, errors.Join(ErrBuildPlan, err)
	}

	block, err := swarmPlan.Selected(planName)
	if err != nil {
		return nil, errors.Join(ErrBuildPlan, err)
	}

	return block.Plan()
}

// getURL retrieves the content from the specified URL using Hashicorp's go-getter.
// It removes the temporary file after reading its content.
func getURL(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrGetPlanFile
	}

	tmpDir, err := os.MkdirTemp("", "swarm-getter-*")
	if err != nil {
		return nil, errors.Join(ErrGetPlanFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetPlanFile, err)
	}

	cli := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string
	// If it's not a local file URL, we need to download the directory and read the file from there
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrGetPlanFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetPlanFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	res, err := cli.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetPlanFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrGetPlanFile, err)
	}

	return data, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // Minimum parts in a go-getter URL: scheme, host, and path
)

// splitFileNameFromGetterURL splits the URL into the directory and file name.
// It returns the new getter URL without the file name and the file name itself.
// It will append any ref query parameter to the new URL if it exists.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref, fileName string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	if strings.Contains(parts[len(parts)-1], goGetterRefSeparator) {
		refSplit := strings.Split(parts[len(parts)-1], goGetterRefSeparator)
		if len(refSplit) > 1 {
			ref = strings.Join(refSplit[1:], "")
		}

		parts[len(parts)-1] = refSplit[0]
	}

	if filepath.Clean(parts[len(parts)-1]) == filepath.Dir(parts[len(parts)-1]) {
		return "", ""
	}

	fileName = filepath.Base(parts[len(parts)-1])
	parts[len(parts)-1] = filepath.Dir(parts[len(parts)-1])

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1] // Remove the last part which is the file name
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
