// Command datalist inspects lookup directives and queries a running host.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"datalist/internal/client"
	"datalist/internal/directive"
	"datalist/internal/logger"
)

func newRootCommand() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "datalist",
		Short:         "Work with foreign datalist directives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	root.PersistentFlags().StringSlice("keywords", directive.DefaultKeywords, "words that introduce a directive")
	root.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	root.AddCommand(NewParseCommand(), NewFieldsCommand(), NewLookupCommand())
	return root
}

// addServerFlags registers the flags of commands that talk to a host.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", "http://localhost:8080", "host base URL")
	cmd.Flags().String("table", "", "table whose form is inspected")
	cmd.Flags().String("field", "", "reserved form field (default foreignDatalist)")
	cmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("table")
}

func clientFromFlags(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	field, _ := cmd.Flags().GetString("field")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	c := client.New(server)
	if field != "" {
		c.Field = field
	}
	c.HTTP.Timeout = timeout
	return c
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
