package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"govie-covid-scraper/internal/config"
	"govie-covid-scraper/internal/parser"
	"govie-covid-scraper/internal/pipeline"
	"govie-covid-scraper/pkg/logger"
)

var classifySource string

func init() {
	classifyCmd.Flags().StringVar(&classifySource, "source", "", "source url recorded on the rows (defaults to the file path)")
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <bulletin.html>",
	Short: "Classifies the tables of a saved bulletin page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		page, err := parser.New().Extract(f, "")
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		source := classifySource
		if source == "" {
			source = args[0]
		}

		r := pipeline.New(config.Default(), nil, logger.NewWithLevel("warn"))
		res := r.ProcessBulletin(source, page, nil)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "published: %q\n", res.PublishedDate)
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.AppendHeader(table.Row{"#", "Category", "Rule", "Raw rows", "Rows kept"})
		for _, tr := range res.Tables {
			t.AppendRow(table.Row{
				tr.Index,
				tr.Classification.Label,
				tr.Classification.Reason,
				len(page.Tables[tr.Index].Rows),
				len(tr.Table.Rows),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
