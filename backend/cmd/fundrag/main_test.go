package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/query"
	"fundrag/backend/internal/resolver"
)

// run executes the CLI against the shipped CSV knowledge base
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--source", "csv", "--data-dir", "../../data", "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestResolve(t *testing.T) {
	out, err := run(t, "resolve", "Which", "funds", "does", "Beta", "Investments", "manage?")
	require.NoError(t, err)
	assert.Equal(t, "Intent: funds-by-amc\namc_id: AMC_Y\n", out)
}

func TestResolve_JSON(t *testing.T) {
	out, err := run(t, "--format", "json", "resolve", "What is Inflation?")
	require.NoError(t, err)

	var got resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, resolver.IntentFactorDetails, got.Intent)
	assert.Equal(t, map[string]string{"factor_id": "Inflation"}, got.Entities)
}

func TestAsk_RetrieveOnly(t *testing.T) {
	out, err := run(t, "--format", "json", "ask", "--retrieve-only", "Find high risk funds")
	require.NoError(t, err)

	var res agent.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, resolver.IntentFundsByRisk, res.Intent)
	assert.True(t, strings.HasPrefix(res.Context, "Found 2 fund(s) with 'High' risk level:"))
	assert.False(t, res.Generated)
}

func TestAsk_RetrieveOnlyHuman(t *testing.T) {
	out, err := run(t, "ask", "--retrieve-only", "asdkjasd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Intent: unknown\n\nAnswer: Sorry,"), out)
}

func TestEntities(t *testing.T) {
	out, err := run(t, "entities")
	require.NoError(t, err)
	assert.Contains(t, out, "Funds (4)\n  F001     FundA Growth\n")
	assert.Contains(t, out, "Sectors (9)\n  Technology\n")
	assert.Contains(t, out, "Source: csv")
}

func TestEntities_JSON(t *testing.T) {
	out, err := run(t, "--format", "json", "entities")
	require.NoError(t, err)

	var catalog query.Catalog
	require.NoError(t, json.Unmarshal([]byte(out), &catalog))
	assert.Len(t, catalog.Factors, 8)
}

func TestEntities_NoData(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--source", "csv", "--data-dir", t.TempDir(), "--log-level", "error", "entities"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Knowledge base data failed to load")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"--format", "yaml", "resolve", "What is Inflation?"}, "unsupported format"},
		{"bad seed source", []string{"seed", "--from", "neo4j"}, "--from must be csv or yaml"},
		{"missing question", []string{"ask"}, "requires at least 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
