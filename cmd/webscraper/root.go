package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webscraper.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webscraper",
		Short: "Extract resources, links and word frequencies from a web page",
		Long: `webscraper fetches a web page and reports what it depends on.

It exports the externally hosted images, stylesheets and scripts of the page,
looks for the hyperlink whose text matches a given phrase (by default
"privacy policy"), fetches the linked page and counts the words of its
visible text. Results are written as JSON files and kept in a local history
database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
