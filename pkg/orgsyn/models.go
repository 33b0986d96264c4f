package orgsyn

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Descriptor identifies one discovered document on the site.
//
// A descriptor is created by the extractor for every link it finds and
// is only mutated afterwards by deduplication, which may grow the alias
// list when the same URL is published under several titles.
type Descriptor struct {
	AnnualVolume string
	Page         string
	Name         string
	URL          string
	Aliases      []string
}

// NewDescriptor creates a descriptor with an empty alias list.
func NewDescriptor(volume, page, name, url string) Descriptor {
	return Descriptor{
		AnnualVolume: volume,
		Page:         page,
		Name:         name,
		URL:          url,
		Aliases:      []string{},
	}
}

// Slug returns a filesystem-safe identifier derived from the document
// name: surrounding whitespace stripped, spaces replaced by underscores,
// every character outside [A-Za-z0-9_.-] dropped. Applying Slug to an
// already valid slug is a no-op.
func (d Descriptor) Slug() string {
	return Slugify(d.Name)
}

// DownloadPath returns the relative on-disk path for the document in the
// form "volume/page/slug.pdf".
func (d Descriptor) DownloadPath() string {
	return fmt.Sprintf("%s/%s/%s.pdf", d.AnnualVolume, d.Page, d.Slug())
}

// MarshalJSON serializes the descriptor including the derived slug.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	aliases := d.Aliases
	if aliases == nil {
		aliases = []string{}
	}

	return json.Marshal(struct {
		AnnualVolume string   `json:"annual_volume"`
		Page         string   `json:"page"`
		Name         string   `json:"name"`
		Aliases      []string `json:"aliases"`
		Slug         string   `json:"slug"`
		URL          string   `json:"url"`
	}{
		AnnualVolume: d.AnnualVolume,
		Page:         d.Page,
		Name:         d.Name,
		Aliases:      aliases,
		Slug:         d.Slug(),
		URL:          d.URL,
	})
}

// Slugify converts a document name into a filesystem-safe slug.
func Slugify(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}

	return b.String()
}
