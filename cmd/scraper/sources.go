package main

import (
	"fmt"
	"strings"

	"go-notice-crawler/internal/source"

	"github.com/spf13/cobra"
)

func newSourcesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Print the loaded configuration and source definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(root.configPath)
			if err != nil {
				return err
			}
			catalog, err := source.Load(cfg.SourcesFile)
			if err != nil {
				return err
			}

			fmt.Println("🔧 Config loaded successfully!")
			fmt.Printf("   Browser engine: %s (headless=%t)\n", cfg.Browser.Engine, cfg.Browser.Headless)
			fmt.Printf("   Crawl interval: %s\n", cfg.CrawlInterval)
			fmt.Printf("   Telegram: %t\n", cfg.Telegram.Enabled())
			fmt.Printf("   Sources file: %s\n", cfg.SourcesFile)
			fmt.Println()

			for _, d := range catalog.All() {
				fmt.Printf("▶️ %-10s %-12s trigger=/%s\n", d.Key, d.School, d.Trigger())
				fmt.Printf("   url:     %s\n", d.BaseURL)
				fmt.Printf("   title:   %s\n", strings.Join(d.TitleSelectors, " | "))
				fmt.Printf("   date:    %s\n", strings.Join(d.DateSelectors, " | "))
				fmt.Printf("   content: %s\n", strings.Join(d.ContentSelectors, " | "))
			}
			return nil
		},
	}
}
