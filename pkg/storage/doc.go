// Package storage lays the downloaded documents out on disk as
// {volume}/{page}/{slug}.pdf under a base directory. Writes go through
// a temporary file and an atomic rename, and already-present files are
// detected so a rerun only fetches what is missing.
package storage
