// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/golden"
)

// ErrInvalidVariableAssignment is returned when a variable flag is not of
// the form name=value.
var ErrInvalidVariableAssignment = errors.New("invalid variable assignment, expected name=value")

// NewCliFlagVariables converts command line variable assignments and
// variable file paths into golden variable assignments. Assignments are
// name=value; the value may itself contain equals signs.
func NewCliFlagVariables(assignments, files []string) ([]golden.CliFlagAssignedVariables, error) {
	var vars []golden.CliFlagAssignedVariables

	for _, assignment := range assignments {
		name, value, found := strings.Cut(assignment, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidVariableAssignment, assignment)
		}

		vars = append(vars, golden.NewCliFlagAssignedVariable(name, value))
	}

	for _, file := range files {
		vars = append(vars, golden.NewCliFlagAssignedVariableFile(file))
	}

	return vars, nil
}
