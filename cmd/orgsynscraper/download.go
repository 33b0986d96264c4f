package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"orgsynscraper/internal/downloader"
	"orgsynscraper/pkg/logger"
	"orgsynscraper/pkg/orgsyn"
	"orgsynscraper/pkg/scraper"
	"orgsynscraper/pkg/storage"
	"orgsynscraper/pkg/ui"
)

var (
	downloadVolume    string
	downloadProcesses int
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download DEST",
	Short: "Crawl the archive and download the procedure PDFs",
	Long: `Crawl the archive and download every discovered procedure PDF into
DEST, laid out as {volume}/{page}/{title}.pdf. Files already present
are skipped, so an interrupted run can simply be repeated. A document
that keeps failing is logged and skipped; it never aborts the batch.`,
	Example: `  # Download one annual volume
  orgsynscraper download --volume 45 ./orgsyn

  # Download the whole archive with 8 workers
  orgsynscraper download --processes 8 ./orgsyn`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&downloadVolume, "volume", "", "annual volume to download (default: all volumes)")
	downloadCmd.Flags().IntVar(&downloadProcesses, "processes", 0, "number of crawl and download workers (default from config)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dest := args[0]
	log := logger.GetLogger()

	coordinator := scraper.New(cfg, log)

	crawlBar := ui.NewProgressBar("volumes ", 1)
	coordinator.SetProgress(func(current, total int) {
		crawlBar.SetTotal(total)
		crawlBar.Set(current)
	})

	descriptors, err := coordinator.FetchLinks(cmd.Context(), downloadVolume, downloadProcesses)
	if err != nil {
		return err
	}

	ui.PrintInfo("Found links", fmt.Sprintf("%d", len(descriptors)))
	if len(descriptors) == 0 {
		return nil
	}

	manager, err := storage.NewManager(dest)
	if err != nil {
		return err
	}
	if err := manager.EnsureDescriptorDirs(descriptors); err != nil {
		return err
	}

	workers := downloadProcesses
	if workers <= 0 {
		workers = cfg.Download.Workers
	}

	pool := downloader.NewWorkerPool(workers, func() (downloader.DocumentFetcher, error) {
		client, err := orgsyn.NewClient(clientOptions(cfg))
		if err != nil {
			return nil, err
		}
		return client, nil
	}, manager, log)
	if err := pool.Start(); err != nil {
		return err
	}

	downloadBar := ui.NewProgressBar("files ", len(descriptors))

	var wg sync.WaitGroup
	var failed, skipped int
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			if result.Error != nil {
				failed++
			}
			if result.Skipped {
				skipped++
			}
			downloadBar.Increment()
		}
	}()

	for _, d := range descriptors {
		if err := pool.Submit(downloader.DownloadJob{Descriptor: d}); err != nil {
			break
		}
	}

	pool.Stop()
	wg.Wait()

	if skipped > 0 {
		ui.PrintInfo("Already on disk", fmt.Sprintf("%d", skipped))
	}
	if failed > 0 {
		ui.PrintWarning("Downloads failed", failed)
	}
	ui.PrintSuccess(fmt.Sprintf("Downloaded %d documents to %s", len(descriptors)-failed-skipped, dest))

	return nil
}
