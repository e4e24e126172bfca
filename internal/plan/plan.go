// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

// Priority bounds for a grouping. Priority orders the merged document when
// no explicit analysis order is given; it does not throttle execution.
const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// Grouping is one unit of work: a named set of folders analyzed together
// by a single worker.
type Grouping struct {
	// Name identifies the grouping. It must be unique within a plan.
	Name string `yaml:"name" docdesc:"Unique name of the grouping"`
	// Folders lists the paths the worker analyzes, relative to the
	// codebase root. At least one is required.
	Folders []string `yaml:"folders" docdesc:"Folder paths the worker analyzes, relative to the codebase root"`
	// Priority is MinPriority..MaxPriority. Zero means unset and is
	// replaced by DefaultPriority when the plan is normalized.
	Priority int `yaml:"priority,omitempty" docdesc:"Merge-order priority from 1 (first) to 5 (last)"`
}

// Plan is the full work specification for a run.
type Plan struct {
	// Summary is an optional free-text description of the plan.
	Summary string `yaml:"summary,omitempty" docdesc:"Free-text description of the plan"`
	// Groupings are the units of work. At least one is required.
	Groupings []Grouping `yaml:"groupings" docdesc:"Units of work, one worker per grouping"`
	// AnalysisOrder optionally names groupings in the order their
	// sections should appear in the merged document. Groupings not
	// listed keep their plan order after the listed ones.
	AnalysisOrder []string `yaml:"analysis_order,omitempty" docdesc:"Grouping names in merged-document order"`
}

// Normalize applies defaults to optional fields. The builders call it
// before validating; callers constructing a Plan directly should too.
func (p *Plan) Normalize() {
	for i := range p.Groupings {
		if p.Groupings[i].Priority == 0 {
			p.Groupings[i].Priority = DefaultPriority
		}
	}
}

// Validate checks the plan invariants and returns all violations joined
// into a single error, or nil when the plan is well formed.
func (p *Plan) Validate() error {
	var errs *multierror.Error

	if len(p.Groupings) == 0 {
		errs = multierror.Append(errs, ErrNoGroupings)
	}

	seen := make(map[string]struct{}, len(p.Groupings))

	for i, g := range p.Groupings {
		if g.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: grouping at index %d", ErrMissingGroupingName, i))
		} else {
			if _, ok := seen[g.Name]; ok {
				errs = multierror.Append(errs, fmt.Errorf("%w: %q", ErrDuplicateGroupingName, g.Name))
			}

			seen[g.Name] = struct{}{}
		}

		if len(g.Folders) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("%w: grouping %q", ErrNoFolders, g.Name))
		}

		for _, f := range g.Folders {
			if f == "" {
				errs = multierror.Append(errs, fmt.Errorf("%w: grouping %q", ErrEmptyFolder, g.Name))
			}
		}

		if g.Priority != 0 && (g.Priority < MinPriority || g.Priority > MaxPriority) {
			errs = multierror.Append(errs, fmt.Errorf(
				"%w: grouping %q has priority %d", ErrInvalidPriority, g.Name, g.Priority))
		}
	}

	for _, name := range p.AnalysisOrder {
		if _, ok := seen[name]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: %q", ErrUnknownOrderEntry, name))
		}
	}

	return errs.ErrorOrNil()
}

// OrderedGroupings returns the groupings in merge order: the analysis
// order sequence when one is present, with unlisted groupings appended in
// plan order, otherwise ascending priority with plan order breaking ties.
// The returned slice is a copy.
func (p *Plan) OrderedGroupings() []Grouping {
	if len(p.AnalysisOrder) == 0 {
		ordered := slices.Clone(p.Groupings)
		slices.SortStableFunc(ordered, func(a, b Grouping) int {
			return cmp.Compare(a.Priority, b.Priority)
		})

		return ordered
	}

	index := make(map[string]int, len(p.Groupings))
	for i, g := range p.Groupings {
		index[g.Name] = i
	}

	ordered := make([]Grouping, 0, len(p.Groupings))
	taken := make(map[string]struct{}, len(p.Groupings))

	for _, name := range p.AnalysisOrder {
		i, ok := index[name]
		if !ok {
			continue
		}

		if _, dup := taken[name]; dup {
			continue
		}

		taken[name] = struct{}{}

		ordered = append(ordered, p.Groupings[i])
	}

	for _, g := range p.Groupings {
		if _, ok := taken[g.Name]; ok {
			continue
		}

		ordered = append(ordered, g)
	}

	return ordered
}
