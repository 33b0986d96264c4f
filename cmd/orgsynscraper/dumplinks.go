package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"orgsynscraper/pkg/logger"
	"orgsynscraper/pkg/scraper"
)

var (
	dumpVolume    string
	dumpProcesses int
	linksOnly     bool
)

// dumpLinksCmd represents the dump-links command
var dumpLinksCmd = &cobra.Command{
	Use:   "dump-links",
	Short: "Crawl the archive and print the discovered PDF links",
	Long: `Crawl the archive and print the discovered procedure PDF links to
stdout as a JSON array. Each entry carries the annual volume, the page,
the procedure title with any alternate titles, a filesystem-safe slug
and the document URL.

Without --volume every annual volume is crawled.`,
	Example: `  # Catalog a single annual volume
  orgsynscraper dump-links --volume 45

  # Catalog the whole archive with 8 workers, URLs only
  orgsynscraper dump-links --processes 8 --links-only > links.txt`,
	Args: cobra.NoArgs,
	RunE: runDumpLinks,
}

func init() {
	rootCmd.AddCommand(dumpLinksCmd)

	dumpLinksCmd.Flags().StringVar(&dumpVolume, "volume", "", "annual volume to crawl (default: all volumes)")
	dumpLinksCmd.Flags().IntVar(&dumpProcesses, "processes", 0, "number of crawl workers (default from config)")
	dumpLinksCmd.Flags().BoolVar(&linksOnly, "links-only", false, "print one document URL per line instead of JSON")
}

func runDumpLinks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	coordinator := scraper.New(cfg, logger.GetLogger())

	descriptors, err := coordinator.FetchLinks(cmd.Context(), dumpVolume, dumpProcesses)
	if err != nil {
		return err
	}

	if linksOnly {
		for _, d := range descriptors {
			fmt.Println(d.URL)
		}
		return nil
	}

	data, err := json.MarshalIndent(descriptors, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	fmt.Println(string(data))

	return nil
}
