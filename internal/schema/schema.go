// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema generates the plan-file JSON schema, a YAML example and
// markdown documentation from the plan types themselves, so the docs
// cannot drift from the code.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/matt-FFFFFF/swarm/internal/plan"
)

// Writer provides methods to write plan schema documents to an io.Writer.
type Writer interface {
	// WriteJSONSchema writes JSON Schema to the writer
	WriteJSONSchema(w io.Writer) error
	// WriteYAMLExample writes an example plan file to the writer
	WriteYAMLExample(w io.Writer) error
	// WriteMarkdownDoc writes Markdown documentation to the writer
	WriteMarkdownDoc(w io.Writer) error
}

// Field represents a field in a JSON schema.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Items       *Field `json:"items,omitempty"`
}

// Generator derives plan schema documents via reflection over the plan
// structs, reading field names from yaml tags and descriptions from
// docdesc tags.
type Generator struct{}

var _ Writer = (*Generator)(nil)

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateJSONSchemaString generates the complete JSON schema for a plan
// file.
func (g *Generator) GenerateJSONSchemaString() (string, error) {
	groupingSchema, err := g.groupingItemSchema()
	if err != nil {
		return "", err
	}

	fields, err := g.extractFields(reflect.TypeOf(plan.Plan{}))
	if err != nil {
		return "", err
	}

	properties := make(map[string]interface{})

	var required []string

	for _, field := range fields {
		prop := g.schemaFieldToProperty(field)

		if field.Name == "groupings" {
			prop["items"] = groupingSchema
			prop["minItems"] = 1
		}

		properties[field.Name] = prop

		if field.Required {
			required = append(required, field.Name)
		}
	}

	rootSchema := map[string]interface{}{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                "Swarm Plan Schema",
		"description":          "Schema for swarm plan files describing parallel codebase analysis work",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}

	bytes, err := json.MarshalIndent(rootSchema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// groupingItemSchema generates the schema object for a single grouping.
func (g *Generator) groupingItemSchema() (map[string]interface{}, error) {
	fields, err := g.extractFields(reflect.TypeOf(plan.Grouping{}))
	if err != nil {
		return nil, err
	}

	properties := make(map[string]interface{})

	var required []string

	for _, field := range fields {
		prop := g.schemaFieldToProperty(field)

		if field.Name == "priority" {
			prop["minimum"] = plan.MinPriority
			prop["maximum"] = plan.MaxPriority
			prop["default"] = plan.DefaultPriority
		}

		properties[field.Name] = prop

		if field.Required {
			required = append(required, field.Name)
		}
	}

	return map[string]interface{}{
		"type":                 "object",
		"description":          "One unit of work: a named set of folders analyzed together by a single worker",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}, nil
}

// extractFields extracts schema fields from a struct type using reflection.
func (g *Generator) extractFields(t reflect.Type) ([]Field, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct type, got %s", t.Kind())
	}

	var fields []Field

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Anonymous {
			embeddedFields, err := g.extractFields(field.Type)
			if err != nil {
				return nil, err
			}

			fields = append(fields, embeddedFields...)

			continue
		}

		schemaField := g.fieldToSchemaField(field)
		if schemaField != nil {
			fields = append(fields, *schemaField)
		}
	}

	return fields, nil
}

// fieldToSchemaField converts a reflect.StructField to a schema Field.
func (g *Generator) fieldToSchemaField(field reflect.StructField) *Field {
	yamlTag := field.Tag.Get("yaml")
	if yamlTag == "-" {
		return nil
	}

	fieldName := strings.ToLower(field.Name)

	if yamlTag != "" {
		parts := strings.Split(yamlTag, ",")
		if parts[0] != "" {
			fieldName = parts[0]
		}
	}

	f := &Field{
		Name:        fieldName,
		Type:        g.getSchemaType(field.Type),
		Description: field.Tag.Get("docdesc"),
		Required:    !(yamlTag != "" && strings.Contains(yamlTag, "omitempty")),
	}

	if f.Type == "array" {
		f.Items = &Field{Type: g.getSchemaType(field.Type.Elem())}
	}

	return f
}

// getSchemaType converts a Go type to a JSON schema type.
func (g *Generator) getSchemaType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return g.getSchemaType(t.Elem())
	default:
		return "string"
	}
}

// schemaFieldToProperty converts a Field to a JSON schema property.
func (g *Generator) schemaFieldToProperty(field Field) map[string]interface{} {
	prop := map[string]interface{}{
		"type": field.Type,
	}

	if field.Description != "" {
		prop["description"] = field.Description
	}

	if field.Type == "array" && field.Items != nil {
		prop["items"] = g.schemaFieldToProperty(*field.Items)
	}

	return prop
}

// WriteJSONSchema writes the complete JSON schema to the writer.
func (g *Generator) WriteJSONSchema(w io.Writer) error {
	schema, err := g.GenerateJSONSchemaString()
	if err != nil {
		return err
	}

	_, err = w.Write([]byte(schema))

	return err
}

// WriteYAMLExample writes an example plan file to the writer.
func (g *Generator) WriteYAMLExample(w io.Writer) error {
	example := `summary: Review of the example service
groupings:
  - name: api
    folders:
      - cmd/api
      - internal/api
    priority: 2
  - name: storage
    folders:
      - internal/db
analysis_order:
  - storage
  - api
`
	_, err := w.Write([]byte(example))

	return err
}

// WriteMarkdownDoc writes Markdown documentation to the writer.
func (g *Generator) WriteMarkdownDoc(w io.Writer) error {
	planFields, err := g.extractFields(reflect.TypeOf(plan.Plan{}))
	if err != nil {
		return err
	}

	groupingFields, err := g.extractFields(reflect.TypeOf(plan.Grouping{}))
	if err != nil {
		return err
	}

	var sb strings.Builder

	sb.WriteString("# Plan file schema\n\n")
	sb.WriteString("A plan describes the work of one run: each grouping becomes one worker " +
		"analyzing its folders, and the merged document follows the analysis order.\n\n")
	sb.WriteString("## Plan\n\n")
	writeFieldList(&sb, planFields)
	sb.WriteString("\n## Grouping\n\n")
	writeFieldList(&sb, groupingFields)

	_, err = w.Write([]byte(sb.String()))

	return err
}

func writeFieldList(sb *strings.Builder, fields []Field) {
	for _, f := range fields {
		optional := ""
		if !f.Required {
			optional = ", optional"
		}

		fmt.Fprintf(sb, "- **%s** (%s%s): %s\n", f.Name, f.Type, optional, f.Description)
	}
}
