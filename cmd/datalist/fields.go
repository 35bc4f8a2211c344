package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewFieldsCommand creates the fields command.
func NewFieldsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fields",
		Short:   "List a table's form fields as the host resolves them",
		Example: `  datalist fields --server http://localhost:8080 --table SALES.ORDERS`,
		Args:    cobra.NoArgs,
		RunE:    runFields,
	}
	addServerFlags(cmd)
	return cmd
}

func runFields(cmd *cobra.Command, _ []string) error {
	tableName, _ := cmd.Flags().GetString("table")
	form, err := clientFromFlags(cmd).Fields(cmd.Context(), tableName)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return renderJSON(w, form)
	}
	rows := make([]table.Row, 0, len(form.Fields))
	for _, f := range form.Fields {
		rows = append(rows, table.Row{f.Name, f.Type, yesNo(f.Nullable), yesNo(f.PK), yesNo(f.Lookup), f.Annotation})
	}
	renderTable(w, table.Row{"NAME", "TYPE", "NULL", "PK", "LOOKUP", "ANNOTATION"}, rows)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
