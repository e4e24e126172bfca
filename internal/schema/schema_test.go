// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/swarm/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJSONSchemaString(t *testing.T) {
	generator := NewGenerator()
	schemaJSON, err := generator.GenerateJSONSchemaString()
	require.NoError(t, err)
	require.NotEmpty(t, schemaJSON)

	var schema map[string]interface{}
	err = json.Unmarshal([]byte(schemaJSON), &schema)
	require.NoError(t, err, "generated schema should be valid JSON")

	assert.Contains(t, schemaJSON, "$schema")
	assert.Contains(t, schemaJSON, "Swarm Plan Schema")

	properties, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok, "schema should have properties")
	assert.Contains(t, properties, "summary")
	assert.Contains(t, properties, "groupings")
	assert.Contains(t, properties, "analysis_order")

	required, ok := schema["required"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"groupings"}, required)

	groupings, ok := properties["groupings"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "array", groupings["type"])

	items, ok := groupings["items"].(map[string]interface{})
	require.True(t, ok, "groupings should have an items schema")

	itemProperties, ok := items["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, itemProperties, "name")
	assert.Contains(t, itemProperties, "folders")
	assert.Contains(t, itemProperties, "priority")

	priority, ok := itemProperties["priority"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, plan.MinPriority, priority["minimum"])
	assert.EqualValues(t, plan.MaxPriority, priority["maximum"])
	assert.EqualValues(t, plan.DefaultPriority, priority["default"])

	folders, ok := itemProperties["folders"].(map[string]interface{})
	require.True(t, ok)

	folderItems, ok := folders["items"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "string", folderItems["type"])
}

func TestWriteYAMLExample_IsValidPlan(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewGenerator().WriteYAMLExample(&buf))

	// The example must decode and validate as a real plan.
	p, err := plan.BuildFromYAML(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, p.Groupings, 2)
	assert.Equal(t, []string{"storage", "api"}, p.AnalysisOrder)
}

func TestWriteYAMLExample_StrictYAML(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewGenerator().WriteYAMLExample(&buf))

	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &raw))
	assert.Contains(t, raw, "groupings")
}

func TestWriteMarkdownDoc(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewGenerator().WriteMarkdownDoc(&buf))

	doc := buf.String()
	assert.Contains(t, doc, "# Plan file schema")
	assert.Contains(t, doc, "## Plan")
	assert.Contains(t, doc, "## Grouping")
	assert.Contains(t, doc, "**groupings** (array)")
	assert.Contains(t, doc, "**priority** (integer, optional)")
	assert.Contains(t, doc, "**summary** (string, optional)")
}

func TestWriteJSONSchema(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewGenerator().WriteJSONSchema(&buf))

	var schema interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
}
