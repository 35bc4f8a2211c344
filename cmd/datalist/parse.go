package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"datalist/internal/directive"
	"datalist/internal/query"
)

var limitStyles = map[string]query.LimitStyle{
	"limit":       query.LimitClause,
	"top":         query.TopClause,
	"fetch-first": query.FetchFirst,
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <annotation>",
		Short: "Parse an annotation and show the lookup query it produces",
		Example: `  datalist parse "Seller. lookup:{table:HR.EMPLOYEES, label:[FULL_NAME, PHONE], value:ID}"
  datalist parse --style top "lookup:{table:CUSTOMERS, label:NAME, value:ID, limit:50}"`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	cmd.Flags().String("style", "limit", "row limit syntax: limit, top or fetch-first")
	cmd.Flags().Int("default-limit", query.DefaultLimit, "limit used when the directive has none")
	return cmd
}

type parseOutput struct {
	Directive directive.Directive `json:"directive"`
	Canonical string              `json:"canonical"`
	Query     string              `json:"query"`
}

func runParse(cmd *cobra.Command, args []string) error {
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	styleName, _ := cmd.Flags().GetString("style")
	defaultLimit, _ := cmd.Flags().GetInt("default-limit")

	style, ok := limitStyles[strings.ToLower(styleName)]
	if !ok {
		return fmt.Errorf("unknown limit style %q", styleName)
	}
	d, err := directive.Parse(args[0], keywords...)
	if err != nil {
		return err
	}
	out := parseOutput{Directive: d, Canonical: d.String(), Query: query.Build(d, defaultLimit, style)}

	w := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return renderJSON(w, out)
	}
	renderTable(w, table.Row{"KEY", "VALUE"}, []table.Row{
		{"table", d.Table},
		{"label", strings.Join(d.Labels, ", ")},
		{"value", d.Value},
		{"filter", d.Filter},
		{"limit", d.EffectiveLimit(defaultLimit)},
		{"directive", out.Canonical},
		{"query", out.Query},
	})
	return nil
}
