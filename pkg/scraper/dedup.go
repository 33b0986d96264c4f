package scraper

import (
	"slices"

	"orgsynscraper/pkg/orgsyn"
)

// Deduplicate collapses descriptors that point at the same URL. The
// first descriptor seen for a URL is kept; later ones are dropped, and
// a later descriptor carrying a different name contributes that name as
// an alias of the kept one. First-seen order of distinct URLs is
// preserved and no alias is recorded twice, so the operation is
// idempotent.
func Deduplicate(descriptors []orgsyn.Descriptor) []orgsyn.Descriptor {
	out := make([]orgsyn.Descriptor, 0, len(descriptors))
	byURL := make(map[string]int, len(descriptors))

	for _, d := range descriptors {
		i, seen := byURL[d.URL]
		if !seen {
			byURL[d.URL] = len(out)
			out = append(out, d)
			continue
		}

		kept := &out[i]
		addAlias(kept, d.Name)
		for _, alias := range d.Aliases {
			addAlias(kept, alias)
		}
	}

	return out
}

func addAlias(d *orgsyn.Descriptor, name string) {
	if name == d.Name || slices.Contains(d.Aliases, name) {
		return
	}
	d.Aliases = append(d.Aliases, name)
}
