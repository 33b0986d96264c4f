package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"orgsynscraper/pkg/orgsyn"
)

// Manager handles document storage and duplicate detection
type Manager struct {
	baseDir string
	saved   map[string]bool
	mu      sync.RWMutex
}

// NewManager creates a storage manager rooted at baseDir, creating the
// directory if needed.
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		baseDir: baseDir,
		saved:   make(map[string]bool),
	}, nil
}

// EnsureDescriptorDirs pre-creates the {volume}/{page} directory of
// every descriptor. Creating them up front keeps the download workers
// out of each other's way; existing directories are left alone.
func (m *Manager) EnsureDescriptorDirs(descriptors []orgsyn.Descriptor) error {
	for _, d := range descriptors {
		dir := filepath.Join(m.baseDir, d.AnnualVolume, d.Page)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// IsDownloaded reports whether the descriptor's document is already on
// disk.
func (m *Manager) IsDownloaded(d orgsyn.Descriptor) bool {
	path := d.DownloadPath()

	m.mu.RLock()
	known := m.saved[path]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(filepath.Join(m.baseDir, filepath.FromSlash(path))); err != nil {
		return false
	}

	m.mu.Lock()
	m.saved[path] = true
	m.mu.Unlock()
	return true
}

// SaveDocument writes the document bytes to the descriptor's download
// path. The data is written to a temporary file in the same directory
// and moved into place with an atomic rename, so a crashed or cancelled
// download never leaves a half-written document behind.
func (m *Manager) SaveDocument(r io.Reader, d orgsyn.Descriptor) error {
	path := d.DownloadPath()
	filename := filepath.Join(m.baseDir, filepath.FromSlash(path))

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write document data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[path] = true
	m.mu.Unlock()

	return nil
}

// BaseDir returns the root of the download tree.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SavedCount returns the number of documents known to be on disk.
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
