package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jo-room/job-scrape/internal/reader"
)

var readersCmd = &cobra.Command{
	Use:   "readers",
	Short: "List the built-in page readers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range reader.NewDefaultRegistry().Names() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(readersCmd)
}
