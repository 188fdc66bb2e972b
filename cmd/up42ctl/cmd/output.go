package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

func validateOutputFormat(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown output format %q: use table, json or yaml", format)
	}
}

// render writes v as JSON or YAML, or calls table for the table format
func render(w io.Writer, format string, v interface{}, table func(*tablewriter.Table)) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)

	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()

	default:
		t := tablewriter.NewWriter(w)
		table(t)
		return t.Render()
	}
}

// recordTable prints a record as sorted field/value rows
func recordTable(record map[string]interface{}) func(*tablewriter.Table) {
	return func(table *tablewriter.Table) {
		keys := make([]string, 0, len(record))
		for k := range record {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		table.Header("Field", "Value")
		for _, k := range keys {
			table.Append(k, formatValue(record[k]))
		}
	}
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
