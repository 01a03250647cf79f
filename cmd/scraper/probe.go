package main

import (
	"fmt"

	"go-notice-crawler/internal/app"
	"go-notice-crawler/internal/browser"
	"go-notice-crawler/internal/extractor"
	"go-notice-crawler/internal/source"

	"github.com/spf13/cobra"
)

func newProbeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <source>",
		Short: "Extract one source without storing anything",
		Long: `Opens a browser session, runs the extractor against the named source
(key or group) and prints the candidate. Useful when a board changes its
markup. Failed extractions leave a screenshot in browser.screenshot_dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(root.configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			catalog, err := source.Load(cfg.SourcesFile)
			if err != nil {
				return err
			}
			defs, err := catalog.Lookup(args[0])
			if err != nil {
				return err
			}

			opener, closeOpener := app.NewOpener(cfg.Browser, logger)
			if closeOpener != nil {
				defer closeOpener()
			}
			session, err := opener.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			ext := extractor.New(cfg.Browser.SettleTimeout, logger)
			for _, def := range defs {
				probeOne(cmd, ext, session, def)
			}
			return nil
		},
	}
}

func probeOne(cmd *cobra.Command, ext *extractor.Extractor, session browser.Session, def source.Definition) {
	fmt.Printf("🔍 %s (%s) %s\n", def.Key, def.School, def.BaseURL)
	c, err := ext.Extract(cmd.Context(), session, def)
	if err != nil {
		fmt.Printf("   ❌ %v\n", err)
		return
	}
	fmt.Printf("   ✅ Title:   %s\n", c.Title)
	fmt.Printf("   🔗 Link:    %s\n", c.OriginalLink)
	fmt.Printf("   📅 Date:    %q\n", c.DateRaw)
	fmt.Printf("   📝 Content: %d chars\n", len([]rune(c.Content)))
}
