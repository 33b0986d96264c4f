package scraper

// SplitChunks splits items into at most n contiguous chunks whose sizes
// differ by at most one, larger chunks first. Concatenating the chunks
// in order reconstructs the input, so per-chunk results can be merged
// back without reordering. Chunks that would be empty are omitted.
func SplitChunks(items []string, n int) [][]string {
	if len(items) == 0 || n <= 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}

	size := len(items) / n
	remainder := len(items) % n

	chunks := make([][]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < remainder {
			end++
		}
		chunks = append(chunks, items[start:end])
		start = end
	}

	return chunks
}
