package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/query"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// writeOutput prints v in the requested format
func writeOutput(w io.Writer, v interface{}, format OutputFormat) error {
	var out string
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		out = string(data)
	case FormatHuman:
		out = formatHuman(v)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

func formatHuman(v interface{}) string {
	switch r := v.(type) {
	case *agent.Result:
		return formatResultHuman(r)
	case *resolveOutput:
		return formatResolveHuman(r)
	case *query.Catalog:
		return formatCatalogHuman(r)
	}
	return fmt.Sprint(v)
}

func formatResultHuman(r *agent.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n", r.Intent)
	if r.Context != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Context)
	}
	if r.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Explanation)
	}
	if r.Answer != "" {
		fmt.Fprintf(&b, "\nAnswer: %s\n", r.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatResolveHuman(r *resolveOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s", r.Intent)
	keys := make([]string, 0, len(r.Entities))
	for k := range r.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, r.Entities[k])
	}
	return b.String()
}

func formatCatalogHuman(c *query.Catalog) string {
	var b strings.Builder
	section := func(title string, entries []query.CatalogEntry) {
		fmt.Fprintf(&b, "%s (%d)\n", title, len(entries))
		for _, e := range entries {
			if e.Name == e.ID {
				fmt.Fprintf(&b, "  %s\n", e.ID)
			} else {
				fmt.Fprintf(&b, "  %-8s %s\n", e.ID, e.Name)
			}
		}
	}
	section("Funds", c.Funds)
	section("AMCs", c.AMCs)
	section("Sectors", c.Sectors)
	section("Factors", c.Factors)
	fmt.Fprintf(&b, "Source: %s", c.Source)
	return b.String()
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
