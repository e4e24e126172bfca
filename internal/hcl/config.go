// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Azure/golden"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/spf13/afero"
)

const (
	swarmConfigFileExt = ".swarm.hcl"
)

var _ golden.Config = &SwarmConfig{}

var (
	// ErrInitConfig is returned when the swarm configuration cannot be initialized.
	ErrInitConfig = errors.New("failed to initialize swarm configuration")
	// ErrNoSwarmConfigFile is returned when no `.swarm.hcl` file is found in the specified directory.
	ErrNoSwarmConfigFile = errors.New("no `.swarm.hcl` file found in the specified directory")
	// ErrParseSwarmConfigFile is returned when there is an error parsing a `.swarm.hcl` file.
	ErrParseSwarmConfigFile = errors.New("failed to parse blocks in the configuration file")
)

// SwarmConfig is the evaluated HCL configuration for a swarm run. It
// carries the variables, locals and plan blocks of one configuration
// directory.
type SwarmConfig struct {
	*golden.BaseConfig
}

// ErrInvalidBlockType represents an error for an unsupported block type in
// a configuration file.
type ErrInvalidBlockType struct {
	BlockType string
	Range     hcl.Range
}

// NewErrInvalidBlockType creates a new ErrInvalidBlockType with the specified block type and range.
func NewErrInvalidBlockType(blockType string, r hcl.Range) *ErrInvalidBlockType {
	return &ErrInvalidBlockType{
		BlockType: blockType,
		Range:     r,
	}
}

// Error implements the error interface for ErrInvalidBlockType.
func (e *ErrInvalidBlockType) Error() string {
	return fmt.Sprintf("invalid block type: %s at %s", e.BlockType, e.Range.String())
}

// NewSwarmConfig creates a new SwarmConfig instance with the provided base
// directory, CLI flag assigned variables, context, and HCL blocks.
func NewSwarmConfig(
	ctx context.Context,
	baseDir string,
	cliFlagAssignedVariables []golden.CliFlagAssignedVariables,
	hclBlocks []*golden.HclBlock,
) (*SwarmConfig, error) {
	cfg := &SwarmConfig{
		BaseConfig: golden.NewBasicConfig(baseDir, "swarm", "swarm", nil, cliFlagAssignedVariables, ctx),
	}

	err := golden.InitConfig(cfg, hclBlocks)

	if err != nil {
		err = errors.Join(ErrInitConfig, err)
	}

	return cfg, err
}

// BuildSwarmConfig constructs a SwarmConfig instance by loading HCL blocks
// from the specified configuration directory.
func BuildSwarmConfig(
	ctx context.Context,
	baseDir, cfgDir string,
	cliFlagAssignedVariables []golden.CliFlagAssignedVariables,
) (*SwarmConfig, error) {
	var err error

	hclBlocks, err := loadSwarmHclBlocks(false, cfgDir)
	if err != nil {
		return nil, err
	}

	c, err := NewSwarmConfig(ctx, baseDir, cliFlagAssignedVariables, hclBlocks)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func loadSwarmHclBlocks(ignoreUnsupportedBlock bool, dir string) ([]*golden.HclBlock, error) {
	fs := FsFactory()

	matches, err := afero.Glob(fs, filepath.Join(dir, "*"+swarmConfigFileExt))
	if err != nil {
		// the only error we expect here is ErrBadPattern, which should never happen as it is a constant.
		panic(err)
	}

	if len(matches) == 0 {
		return nil, ErrNoSwarmConfigFile
	}

	var blocks []*golden.HclBlock

	for _, filename := range matches {
		content, fsErr := afero.ReadFile(fs, filename)
		if fsErr != nil {
			err = multierror.Append(err, fsErr)
			continue
		}

		readFile, diag := hclsyntax.ParseConfig(content, filename, hcl.InitialPos)
		if diag.HasErrors() {
			err = multierror.Append(err, diag.Errs()...)
			continue
		}

		writeFile, _ := hclwrite.ParseConfig(content, filename, hcl.InitialPos)
		readBody := readFile.Body.(*hclsyntax.Body)
		writeBody := writeFile.Body()
		blocks = append(blocks, golden.AsHclBlocks(readBody.Blocks, writeBody.Blocks())...)
	}

	if err != nil {
		return nil, errors.Join(ErrParseSwarmConfigFile, err)
	}

	var r []*golden.HclBlock

	for _, b := range blocks {
		if golden.IsBlockTypeWanted(b.Type) {
			r = append(r, b)
			continue
		}

		if !ignoreUnsupportedBlock {
			err = multierror.Append(errors.Join(NewErrInvalidBlockType(b.Type, b.Range())), err)
		}
	}

	if err != nil {
		err = errors.Join(ErrParseSwarmConfigFile, err)
	}

	return r, err
}
