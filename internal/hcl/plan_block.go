// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"github.com/Azure/golden"
	"github.com/zclconf/go-cty/cty"
)

var _ golden.ApplyBlock = (*PlanBlock)(nil)

// PlanBlock is a `plan` block in a `.swarm.hcl` file. The block label
// names the plan; each nested grouping block is one unit of work.
type PlanBlock struct {
	*golden.BaseBlock
	Summary       string           `hcl:"summary,optional"`
	AnalysisOrder []string         `hcl:"analysis_order,optional"`
	Groupings     []*GroupingBlock `hcl:"grouping,block"`
}

// Type implements golden.Block.
func (b *PlanBlock) Type() string {
	return ""
}

// BlockType implements golden.Block.
func (b *PlanBlock) BlockType() string {
	return "plan"
}

// AddressLength implements golden.Block.
func (b *PlanBlock) AddressLength() int {
	return 2
}

// CanExecutePrePlan implements golden.Block.
func (b *PlanBlock) CanExecutePrePlan() bool {
	return false
}

// Apply is a no-op: plan blocks declare work, they do not perform it.
func (b *PlanBlock) Apply() error {
	return nil
}

// Address implements golden.Block.
func (b *PlanBlock) Address() string {
	return "plan." + b.Name()
}

// GroupingBlock is one unit of work inside a plan block: a named set of
// folders analyzed together by a single worker.
type GroupingBlock struct {
	Name     string   `hcl:"name"`
	Folders  []string `hcl:"folders"`
	Priority int      `hcl:"priority,optional"`
}

func groupingBlockCtyType() cty.Type {
	return cty.ObjectWithOptionalAttrs(map[string]cty.Type{
		"name":     cty.String,
		"folders":  cty.List(cty.String),
		"priority": cty.Number,
	}, []string{
		"priority",
	})
}
