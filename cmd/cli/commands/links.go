package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"govie-covid-scraper/internal/bulletin"
	"govie-covid-scraper/internal/config"
)

var linksBase string

func init() {
	linksCmd.Flags().StringVar(&linksBase, "base", config.DefaultBaseURL, "origin that /en/ links are resolved against")
	rootCmd.AddCommand(linksCmd)
}

var linksCmd = &cobra.Command{
	Use:   "links <listing.html>",
	Short: "Prints the press-release links of a saved listing page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		links, err := bulletin.PressReleaseLinksFromHTML(f, linksBase)
		if err != nil {
			return err
		}
		for _, l := range links {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}
