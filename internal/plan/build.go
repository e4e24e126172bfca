// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

var (
	// ErrInvalidYaml is returned when the YAML cannot be parsed.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrNoGroupings is returned when the plan has no groupings.
	ErrNoGroupings = errors.New("plan contains no groupings")
	// ErrMissingGroupingName is returned when a grouping has no name.
	ErrMissingGroupingName = errors.New("grouping name is required")
	// ErrDuplicateGroupingName is returned when two groupings share a name.
	ErrDuplicateGroupingName = errors.New("duplicate grouping name")
	// ErrNoFolders is returned when a grouping has no folders.
	ErrNoFolders = errors.New("grouping has no folders")
	// ErrEmptyFolder is returned when a grouping contains an empty folder path.
	ErrEmptyFolder = errors.New("folder path is empty")
	// ErrInvalidPriority is returned when a priority is outside MinPriority..MaxPriority.
	ErrInvalidPriority = errors.New("priority out of range")
	// ErrUnknownOrderEntry is returned when the analysis order names a
	// grouping that does not exist.
	ErrUnknownOrderEntry = errors.New("analysis order references unknown grouping")
)

// BuildFromYAML creates a normalized, validated Plan from YAML data.
func BuildFromYAML(yamlData []byte) (*Plan, error) {
	p := &Plan{}

	if err := yaml.Unmarshal(yamlData, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	p.Normalize()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}
