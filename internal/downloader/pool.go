package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"orgsynscraper/pkg/logger"
	"orgsynscraper/pkg/orgsyn"
)

// DownloadJob represents a single document download task
type DownloadJob struct {
	Descriptor orgsyn.Descriptor
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// DocumentFetcher fetches a document's bytes from the site
type DocumentFetcher interface {
	DownloadDocument(ctx context.Context, url string) ([]byte, error)
}

// DocumentStorage persists downloaded documents
type DocumentStorage interface {
	IsDownloaded(d orgsyn.Descriptor) bool
	SaveDocument(r io.Reader, d orgsyn.Descriptor) error
}

// WorkerPool manages concurrent download workers. Each worker fetches
// through its own session, so no connection state is shared across
// goroutines.
type WorkerPool struct {
	numWorkers     int
	jobQueue       chan DownloadJob
	resultQueue    chan DownloadResult
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	newFetcher     func() (DocumentFetcher, error)
	storageManager DocumentStorage
	logger         logger.Logger
}

// NewWorkerPool creates a new download worker pool. newFetcher is
// invoked once per worker on Start.
func NewWorkerPool(
	numWorkers int,
	newFetcher func() (DocumentFetcher, error),
	storageManager DocumentStorage,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:     numWorkers,
		jobQueue:       make(chan DownloadJob, numWorkers*2),
		resultQueue:    make(chan DownloadResult, numWorkers),
		ctx:            ctx,
		cancel:         cancel,
		newFetcher:     newFetcher,
		storageManager: storageManager,
		logger:         log,
	}
}

// Start creates one fetcher per worker and starts the workers.
func (wp *WorkerPool) Start() error {
	wp.logger.InfoWithFields("Starting download pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	fetchers := make([]DocumentFetcher, wp.numWorkers)
	for i := range fetchers {
		fetcher, err := wp.newFetcher()
		if err != nil {
			wp.cancel()
			return fmt.Errorf("failed to create fetcher for worker %d: %w", i, err)
		}
		fetchers[i] = fetcher
	}

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i, fetchers[i])
	}

	return nil
}

// Stop gracefully shuts down the worker pool: remaining jobs are
// processed, then the result queue is closed.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("Download pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int, fetcher DocumentFetcher) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id, fetcher)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job. A failed download is
// reported through the result, never escalated: one bad file must not
// take the batch down.
func (wp *WorkerPool) processJob(job DownloadJob, workerID int, fetcher DocumentFetcher) DownloadResult {
	start := time.Now()
	d := job.Descriptor
	result := DownloadResult{Job: job}

	if wp.storageManager.IsDownloaded(d) {
		wp.logger.DebugWithFields("Document already on disk", map[string]interface{}{
			"worker_id": workerID,
			"path":      d.DownloadPath(),
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	data, err := fetcher.DownloadDocument(wp.ctx, d.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to download document", map[string]interface{}{
			"worker_id": workerID,
			"url":       d.URL,
			"error":     err.Error(),
			"duration":  result.Duration,
		})

		return result
	}
	result.Size = len(data)

	if err := wp.storageManager.SaveDocument(bytes.NewReader(data), d); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to save document", map[string]interface{}{
			"worker_id": workerID,
			"path":      d.DownloadPath(),
			"error":     err.Error(),
			"size":      result.Size,
		})

		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed download", map[string]interface{}{
		"worker_id": workerID,
		"path":      d.DownloadPath(),
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the number of active workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
