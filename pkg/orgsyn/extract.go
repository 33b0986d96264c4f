package orgsyn

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"orgsynscraper/pkg/errors"
)

// Markup landmarks on the site. Like the frame offsets these mirror the
// server's page structure and move when the site changes.
const (
	volumeSelectID = "ctl00_QuickSearchAnnVolList1"

	contentLinkPrefix = "Content"
	documentExtension = ".pdf"

	procedureTitleSelector = "#ctl00_MainContent_procedureBody > .title"

	containerClassSelector      = "div.collapsibleContainer"
	containerTitleSelector      = "div.procTitle"
	containerDocumentPathFormat = "Content/pdfs/procedures/%s.pdf"
)

// extractionStrategy locates document links and their titles in one of
// the page layouts the site serves. A strategy that finds no links
// reports no match and the next one is tried.
type extractionStrategy struct {
	name    string
	extract func(doc *goquery.Document, base *url.URL) (links, titles []string)
}

// documentStrategies is the ordered fallback chain for search result
// pages. The first strategy that yields at least one link wins.
var documentStrategies = []extractionStrategy{
	{name: "content_anchors", extract: extractContentAnchors},
	{name: "collapsible_containers", extract: extractCollapsibleContainers},
}

// extractSeedTokens reads the three hidden token inputs from a full
// page. A missing input yields an empty token; the server rejects the
// following postback in that case, which is handled there.
func extractSeedTokens(doc *goquery.Document) TokenSet {
	return TokenSet{
		ViewState:          inputValue(doc, viewStateID),
		ViewStateGenerator: inputValue(doc, viewStateGeneratorID),
		EventValidation:    inputValue(doc, eventValidationID),
	}
}

func inputValue(doc *goquery.Document, id string) string {
	value, _ := doc.Find(fmt.Sprintf("input[id=%q]", id)).Attr("value")
	return value
}

// extractOptionValues collects the non-empty option values beneath the
// given selection, preserving document order. Empty values are the
// site's placeholder entries ("Select Ann. Volume") and are dropped.
func extractOptionValues(sel *goquery.Selection) []string {
	var values []string
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if value, ok := opt.Attr("value"); ok && value != "" {
			values = append(values, value)
		}
	})
	return values
}

// parseOptionsMarkup parses a standalone markup fragment (the options
// sub-frame of a partial response) and returns its option values.
func parseOptionsMarkup(markup string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse options fragment: %v", err),
		}
	}
	return extractOptionValues(doc.Selection), nil
}

// ExtractDocumentLinks parses a search result page and builds one
// descriptor per discovered document link.
//
// The layout fallback chain is tried in order. When the number of
// extracted titles matches the number of links they are paired 1:1 in
// document order; on any mismatch every link is named by its URL
// filename stem instead of failing.
func ExtractDocumentLinks(r io.Reader, base *url.URL, volume, page string) ([]Descriptor, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse search result page: %v", err),
		}
	}

	var links, titles []string
	for _, strategy := range documentStrategies {
		links, titles = strategy.extract(doc, base)
		if len(links) > 0 {
			break
		}
	}

	if len(links) == 0 {
		return nil, nil
	}

	descriptors := make([]Descriptor, 0, len(links))

	if len(titles) == len(links) {
		for i, link := range links {
			descriptors = append(descriptors, NewDescriptor(volume, page, titles[i], link))
		}
		return descriptors, nil
	}

	// Title/link count mismatch: name every link by its filename stem.
	for _, link := range links {
		descriptors = append(descriptors, NewDescriptor(volume, page, URLStem(link), link))
	}
	return descriptors, nil
}

// extractContentAnchors handles the common layout: anchors pointing into
// the Content folder paired with title elements in the procedure body.
func extractContentAnchors(doc *goquery.Document, base *url.URL) (links, titles []string) {
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, contentLinkPrefix) && strings.HasSuffix(href, documentExtension) {
			links = append(links, resolveAgainst(base, href))
		}
	})

	doc.Find(procedureTitleSelector).Each(func(_ int, title *goquery.Selection) {
		titles = append(titles, strings.TrimSpace(title.Text()))
	})

	return links, titles
}

// extractCollapsibleContainers handles the alternate layout some pages
// use (multiple procedures behind collapsible sections). The container
// element id doubles as the document filename on the server.
func extractCollapsibleContainers(doc *goquery.Document, base *url.URL) (links, titles []string) {
	doc.Find(containerClassSelector).Each(func(_ int, div *goquery.Selection) {
		if id, ok := div.Attr("id"); ok && id != "" {
			links = append(links, resolveAgainst(base, fmt.Sprintf(containerDocumentPathFormat, id)))
		}
	})

	doc.Find(containerTitleSelector).Each(func(_ int, title *goquery.Selection) {
		titles = append(titles, strings.TrimSpace(title.Text()))
	})

	return links, titles
}

// resolveAgainst resolves a possibly relative href against the site base
// URL. An unparsable href is returned as-is.
func resolveAgainst(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// URLStem returns the filename of a URL without its extension, used to
// name documents when no title is available.
func URLStem(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	return strings.TrimSuffix(name, path.Ext(name))
}
