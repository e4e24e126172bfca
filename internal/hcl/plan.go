// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Azure/golden"
	"github.com/matt-FFFFFF/swarm/internal/plan"
)

var (
	// ErrNoPlanBlock is returned when the configuration defines no plan block.
	ErrNoPlanBlock = errors.New("configuration contains no plan block")
	// ErrPlanSelection is returned when the requested plan cannot be determined.
	ErrPlanSelection = errors.New("cannot select plan")
)

// RunSwarmPlan evaluates the configuration, resolving variables and
// expressions, and collects the decoded plan blocks.
func RunSwarmPlan(c *SwarmConfig) (*SwarmPlan, error) {
	err := c.RunPlan()
	if err != nil {
		return nil, err
	}

	sp := newSwarmPlan(c)
	for _, pb := range golden.Blocks[*PlanBlock](c) {
		sp.addPlan(pb)
	}

	return sp, nil
}

func newSwarmPlan(c *SwarmConfig) *SwarmPlan {
	return &SwarmPlan{
		c: c,
	}
}

// SwarmPlan holds the plan blocks decoded from one configuration
// directory.
type SwarmPlan struct {
	Plans []*PlanBlock
	c     *SwarmConfig
	mu    sync.Mutex
}

func (p *SwarmPlan) addPlan(b *PlanBlock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Plans = append(p.Plans, b)
}

// Selected returns the plan block matching name. The empty name selects
// the only defined plan and is an error when several exist.
func (p *SwarmPlan) Selected(name string) (*PlanBlock, error) {
	if len(p.Plans) == 0 {
		return nil, ErrNoPlanBlock
	}

	if name == "" {
		if len(p.Plans) > 1 {
			return nil, fmt.Errorf("%w: %d plans defined, specify one by name", ErrPlanSelection, len(p.Plans))
		}

		return p.Plans[0], nil
	}

	for _, b := range p.Plans {
		if b.Name() == name {
			return b, nil
		}
	}

	return nil, fmt.Errorf("%w: no plan named %q", ErrPlanSelection, name)
}

// Plan converts the decoded block into the runnable plan form, applying
// defaults and validating.
func (b *PlanBlock) Plan() (*plan.Plan, error) {
	p := &plan.Plan{
		Summary:       b.Summary,
		AnalysisOrder: slices.Clone(b.AnalysisOrder),
		Groupings:     make([]plan.Grouping, 0, len(b.Groupings)),
	}

	for _, g := range b.Groupings {
		p.Groupings = append(p.Groupings, plan.Grouping{
			Name:     g.Name,
			Folders:  slices.Clone(g.Folders),
			Priority: g.Priority,
		})
	}

	p.Normalize()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}
