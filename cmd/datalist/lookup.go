package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"datalist/internal/client"
	"datalist/internal/directive"
	"datalist/internal/logger"
)

// NewLookupCommand creates the lookup command.
func NewLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Fetch the option lists of a table's lookup fields",
		Example: `  datalist lookup --table SALES.ORDERS
  datalist lookup --table SALES.ORDERS --only EMPLOYEE_ID -o json`,
		Args: cobra.NoArgs,
		RunE: runLookup,
	}
	addServerFlags(cmd)
	cmd.Flags().StringSlice("only", nil, "fields to fetch (default all lookup fields)")
	return cmd
}

type bindingOutput struct {
	Field   string `json:"field"`
	ListID  string `json:"listId"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
	Options any    `json:"options,omitempty"`
}

func runLookup(cmd *cobra.Command, _ []string) error {
	tableName, _ := cmd.Flags().GetString("table")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	only, _ := cmd.Flags().GetStringSlice("only")
	c := clientFromFlags(cmd)

	form, err := c.Fields(cmd.Context(), tableName)
	if err != nil {
		return err
	}

	wanted := map[string]bool{}
	for _, f := range only {
		wanted[f] = true
	}
	var bindings client.Bindings
	for _, f := range form.Fields {
		if !f.Lookup || (len(wanted) > 0 && !wanted[f.Name]) {
			continue
		}
		d, err := directive.Parse(f.Annotation, keywords...)
		if err != nil {
			logger.Warn("field %s: %v", f.Name, err)
			continue
		}
		bindings.Bind(f.Name, d)
	}
	if len(bindings.All()) == 0 {
		return fmt.Errorf("table %s has no lookup fields", tableName)
	}

	if err := bindings.ActivateAll(cmd.Context(), c.Fetch); err != nil {
		return err
	}

	var out []bindingOutput
	for _, b := range bindings.All() {
		o := bindingOutput{Field: b.Field, ListID: b.ListID(), State: b.State().String()}
		if err := b.Err(); err != nil {
			o.Error = err.Error()
		}
		if opts := b.Options(); opts != nil {
			o.Options = opts
		}
		out = append(out, o)
	}

	w := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return renderJSON(w, out)
	}
	var rows []table.Row
	for _, b := range bindings.All() {
		if err := b.Err(); err != nil {
			rows = append(rows, table.Row{b.Field, b.State(), "", err.Error()})
			continue
		}
		for _, o := range b.Options() {
			rows = append(rows, table.Row{b.Field, b.State(), o.ID, o.Text})
		}
	}
	renderTable(w, table.Row{"FIELD", "STATE", "ID", "TEXT"}, rows)
	return nil
}
