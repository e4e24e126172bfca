// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema provides the schema command for displaying plan file schema help.
package schema

import (
	"context"
	"fmt"
	"strings"

	planschema "github.com/matt-FFFFFF/swarm/internal/schema"
	"github.com/urfave/cli/v3"
)

const (
	formatFlag = "format"
)

// SchemaCmd is the command that displays plan file schema documentation.
var SchemaCmd = &cli.Command{
	Name:        "schema",
	Description: "Display plan file schema documentation",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        formatFlag,
			Aliases:     []string{"f"},
			Usage:       "Output format: yaml, markdown, or json",
			DefaultText: "yaml",
			Value:       "yaml",
		},
	},
	Action: actionFunc,
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	format := cmd.String(formatFlag)

	if !isValidFormat(format) {
		return cli.Exit(fmt.Sprintf("Invalid format: %s. Valid formats: yaml, markdown, json", format), 1)
	}

	generator := planschema.NewGenerator()

	switch strings.ToLower(format) {
	case "markdown", "md":
		return generator.WriteMarkdownDoc(cmd.Writer)
	case "json":
		return generator.WriteJSONSchema(cmd.Writer)
	default:
		return generator.WriteYAMLExample(cmd.Writer)
	}
}

func isValidFormat(format string) bool {
	validFormats := []string{"yaml", "markdown", "md", "json"}
	format = strings.ToLower(format)

	for _, valid := range validFormats {
		if format == valid {
			return true
		}
	}

	return false
}
