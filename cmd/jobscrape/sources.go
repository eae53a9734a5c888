package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured sources.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-25s %-22s %-8s %s\n", "Source", "Reader", "Status", "Page")
	fmt.Println(strings.Repeat("─", 80))

	active, inactive := 0, 0
	for _, s := range cfg.Sources {
		status := "active"
		if !s.Active {
			status = "inactive"
			inactive++
		} else {
			active++
		}

		readerName, page := s.Reader, s.PageURL
		if len(s.Pages) > 0 {
			kinds := make([]string, 0, len(s.Pages))
			for _, p := range s.Pages {
				kinds = append(kinds, p.Kind)
			}
			readerName = "pages: " + strings.Join(kinds, ",")
			page = s.Pages[0].URL
		}
		if readerName == "" {
			readerName = "-"
		}
		fmt.Printf("%-25s %-22s %-8s %s\n", s.Name, readerName, status, page)
	}

	fmt.Printf("\nTotal: %d sources (%d active, %d inactive)\n", len(cfg.Sources), active, inactive)
	return nil
}
