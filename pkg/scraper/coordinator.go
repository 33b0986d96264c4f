package scraper

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"orgsynscraper/pkg/config"
	"orgsynscraper/pkg/errors"
	"orgsynscraper/pkg/logger"
	"orgsynscraper/pkg/orgsyn"
	"orgsynscraper/pkg/retry"
)

// ProgressFunc is called after each volume finishes during an
// all-volume crawl.
type ProgressFunc func(current, total int)

// Coordinator drives the link discovery crawl. Sessions are not shared:
// the coordinator opens one seeding session per volume and each worker
// opens its own, so the postback tokens never cross goroutines.
type Coordinator struct {
	clientOpts orgsyn.Options
	workers    int
	logger     logger.Logger
	progress   ProgressFunc
}

// New creates a Coordinator from the effective configuration.
func New(cfg *config.Config, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Coordinator{
		clientOpts: orgsyn.Options{
			BaseURL:     cfg.Site.BaseURL,
			UserAgent:   cfg.Site.UserAgent,
			Timeout:     cfg.Site.RequestTimeout,
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff:     &retry.LinearBackoff{Step: cfg.Retry.BackoffStep},
			Logger:      log,
		},
		workers: cfg.Crawl.Workers,
		logger:  log,
	}
}

// SetProgress installs a callback reporting crawl progress per volume.
func (c *Coordinator) SetProgress(fn ProgressFunc) {
	c.progress = fn
}

// FetchLinks crawls one annual volume, or every volume when volume is
// empty, and returns the deduplicated document descriptors. workers
// overrides the configured worker count when positive.
func (c *Coordinator) FetchLinks(ctx context.Context, volume string, workers int) ([]orgsyn.Descriptor, error) {
	if workers <= 0 {
		workers = c.workers
	}

	if volume != "" {
		descriptors, err := c.loadVolumeLinksParallel(ctx, volume, workers)
		if err != nil {
			return nil, err
		}
		c.report(1, 1)
		return Deduplicate(descriptors), nil
	}

	session, err := c.newSession()
	if err != nil {
		return nil, err
	}
	volumes, err := session.RequestVolumes(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("starting full crawl", map[string]interface{}{
		"volumes": len(volumes),
		"workers": workers,
	})

	all := []orgsyn.Descriptor{}
	for i, v := range volumes {
		descriptors, err := c.loadVolumeLinksParallel(ctx, v, workers)
		if err != nil {
			return nil, err
		}
		all = append(all, descriptors...)
		c.report(i+1, len(volumes))
	}

	return Deduplicate(all), nil
}

// chunkTask is one worker assignment: a contiguous run of pages of a
// single volume.
type chunkTask struct {
	id     int
	volume string
	pages  []string
}

type chunkResult struct {
	task        chunkTask
	descriptors []orgsyn.Descriptor
	err         error
}

// loadVolumeLinksParallel discovers the document links of one volume.
// A seeding session validates the volume and lists its pages; the pages
// are split into contiguous chunks, one per worker, and each chunk is
// crawled on an independent session. A failed chunk contributes nothing
// while its siblings run to completion, and the surviving results are
// merged back in page order.
func (c *Coordinator) loadVolumeLinksParallel(ctx context.Context, volume string, workers int) ([]orgsyn.Descriptor, error) {
	session, err := c.newSession()
	if err != nil {
		return nil, err
	}

	volumes, err := session.RequestVolumes(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(volumes, volume) {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeValidation,
			Message: fmt.Sprintf("unknown annual volume %q", volume),
		}
	}

	pages, err := session.RequestPagesOfVolume(ctx, volume)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		c.logger.WarnWithFields("volume has no pages", map[string]interface{}{
			"volume": volume,
		})
		return []orgsyn.Descriptor{}, nil
	}

	chunks := SplitChunks(pages, workers)

	c.logger.InfoWithFields("crawling volume", map[string]interface{}{
		"volume": volume,
		"pages":  len(pages),
		"chunks": len(chunks),
	})

	tasks := make(chan chunkTask, len(chunks))
	results := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < len(chunks); i++ {
		wg.Add(1)
		go c.chunkWorker(ctx, tasks, results, &wg)
	}

	for i, chunk := range chunks {
		tasks <- chunkTask{id: i, volume: volume, pages: chunk}
	}
	close(tasks)

	wg.Wait()
	close(results)

	// Reassemble in chunk order so the catalog follows the page order
	// of the site.
	parts := make([][]orgsyn.Descriptor, len(chunks))
	for res := range results {
		if res.err != nil {
			c.logger.ErrorWithFields("chunk failed, its pages are skipped", map[string]interface{}{
				"volume": res.task.volume,
				"pages":  len(res.task.pages),
				"error":  res.err.Error(),
			})
			continue
		}
		parts[res.task.id] = res.descriptors
	}

	merged := []orgsyn.Descriptor{}
	for _, part := range parts {
		merged = append(merged, part...)
	}

	return merged, nil
}

func (c *Coordinator) chunkWorker(ctx context.Context, tasks <-chan chunkTask, results chan<- chunkResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range tasks {
		descriptors, err := c.runChunk(ctx, task)
		results <- chunkResult{task: task, descriptors: descriptors, err: err}
	}
}

// runChunk crawls one page chunk on a fresh session. The session is
// seeded from scratch, so the volume and every assigned page are
// validated against what this session actually sees before any search
// is issued.
func (c *Coordinator) runChunk(ctx context.Context, task chunkTask) ([]orgsyn.Descriptor, error) {
	session, err := c.newSession()
	if err != nil {
		return nil, err
	}

	volumes, err := session.RequestVolumes(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(volumes, task.volume) {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeValidation,
			Message: fmt.Sprintf("unknown annual volume %q", task.volume),
		}
	}

	pages, err := session.RequestPagesOfVolume(ctx, task.volume)
	if err != nil {
		return nil, err
	}
	for _, page := range task.pages {
		if !slices.Contains(pages, page) {
			return nil, &errors.Error{
				Type:    errors.ErrorTypeValidation,
				Message: fmt.Sprintf("volume %q has no page %q", task.volume, page),
			}
		}
	}

	out := []orgsyn.Descriptor{}
	for _, page := range task.pages {
		descriptors, err := session.RequestVolumePagePDFLinks(ctx, task.volume, page)
		if err != nil {
			return nil, err
		}
		out = append(out, descriptors...)
	}

	return out, nil
}

func (c *Coordinator) newSession() (*orgsyn.Client, error) {
	return orgsyn.NewClient(c.clientOpts)
}

func (c *Coordinator) report(current, total int) {
	if c.progress != nil {
		c.progress(current, total)
	}
}
