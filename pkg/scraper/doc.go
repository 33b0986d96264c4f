// Package scraper coordinates the crawl: it discovers the annual
// volumes and their pages, fans the pages out over a pool of workers
// holding independent site sessions, and merges the discovered document
// descriptors back into one deduplicated catalog.
package scraper
