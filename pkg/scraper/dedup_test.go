package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgsynscraper/pkg/orgsyn"
)

func TestDeduplicateDropsExactDuplicates(t *testing.T) {
	in := []orgsyn.Descriptor{
		orgsyn.NewDescriptor("45", "1", "Alpha", "http://orgsyn.org/a.pdf"),
		orgsyn.NewDescriptor("45", "1", "Alpha", "http://orgsyn.org/a.pdf"),
	}

	out := Deduplicate(in)

	require.Len(t, out, 1)
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Empty(t, out[0].Aliases)
}

func TestDeduplicateRecordsAliases(t *testing.T) {
	in := []orgsyn.Descriptor{
		orgsyn.NewDescriptor("45", "1", "Alpha", "http://orgsyn.org/a.pdf"),
		orgsyn.NewDescriptor("46", "9", "Alpha Revisited", "http://orgsyn.org/a.pdf"),
		orgsyn.NewDescriptor("47", "3", "Alpha Again", "http://orgsyn.org/a.pdf"),
		orgsyn.NewDescriptor("47", "4", "Alpha Revisited", "http://orgsyn.org/a.pdf"),
	}

	out := Deduplicate(in)

	require.Len(t, out, 1)
	assert.Equal(t, "Alpha", out[0].Name)
	// First-seen alias order, no duplicates
	assert.Equal(t, []string{"Alpha Revisited", "Alpha Again"}, out[0].Aliases)
	// The kept descriptor keeps its own volume and page
	assert.Equal(t, "45", out[0].AnnualVolume)
	assert.Equal(t, "1", out[0].Page)
}

func TestDeduplicatePreservesFirstSeenOrder(t *testing.T) {
	in := []orgsyn.Descriptor{
		orgsyn.NewDescriptor("45", "1", "C", "http://orgsyn.org/c.pdf"),
		orgsyn.NewDescriptor("45", "1", "A", "http://orgsyn.org/a.pdf"),
		orgsyn.NewDescriptor("45", "2", "C", "http://orgsyn.org/c.pdf"),
		orgsyn.NewDescriptor("45", "2", "B", "http://orgsyn.org/b.pdf"),
	}

	out := Deduplicate(in)

	require.Len(t, out, 3)
	assert.Equal(t, "C", out[0].Name)
	assert.Equal(t, "A", out[1].Name)
	assert.Equal(t, "B", out[2].Name)
}

func TestDeduplicateIdempotent(t *testing.T) {
	in := []orgsyn.Descriptor{
		orgsyn.NewDescriptor("45", "1", "Alpha", "http://orgsyn.org/a.pdf"),
		orgsyn.NewDescriptor("45", "1", "Beta", "http://orgsyn.org/a.pdf"),
		orgsyn.NewDescriptor("45", "2", "Gamma", "http://orgsyn.org/g.pdf"),
	}

	once := Deduplicate(in)
	twice := Deduplicate(once)

	assert.Equal(t, once, twice)
}

func TestDeduplicateEmptyInput(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
	assert.Empty(t, Deduplicate([]orgsyn.Descriptor{}))
}
