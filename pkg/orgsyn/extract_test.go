package orgsyn

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const landingPage = `<!DOCTYPE html>
<html><body>
<form method="post" action="./Default.aspx">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="seed-viewstate" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="seed-generator" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="seed-validation" />
<select name="ctl00$QuickSearchAnnVolList1" id="ctl00_QuickSearchAnnVolList1">
	<option value="">Select Ann. Volume</option>
	<option value="102">102</option>
	<option value="101">101</option>
	<option value="100">100</option>
</select>
</form>
</body></html>`

func mustBase(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("http://orgsyn.org")
	require.NoError(t, err)
	return base
}

func TestExtractSeedTokens(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(landingPage))
	require.NoError(t, err)

	tokens := extractSeedTokens(doc)
	assert.Equal(t, "seed-viewstate", tokens.ViewState)
	assert.Equal(t, "seed-generator", tokens.ViewStateGenerator)
	assert.Equal(t, "seed-validation", tokens.EventValidation)
	assert.False(t, tokens.Empty())
}

func TestExtractSeedTokensMissingInputs(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)

	tokens := extractSeedTokens(doc)
	assert.True(t, tokens.Empty(), "missing inputs must yield empty tokens, not an error")
}

func TestExtractOptionValuesSkipsPlaceholders(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(landingPage))
	require.NoError(t, err)

	values := extractOptionValues(doc.Find("select"))
	assert.Equal(t, []string{"102", "101", "100"}, values,
		"placeholder options are dropped, document order and duplicates preserved")
}

func TestParseOptionsMarkup(t *testing.T) {
	pages, err := parseOptionsMarkup(
		`<select><option value="">Select Page</option><option value="1">1</option><option value="14">14</option></select>`,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "14"}, pages)
}

func TestExtractDocumentLinksPrimaryLayout(t *testing.T) {
	page := `<html><body>
<div id="ctl00_MainContent_procedureBody">
	<div class="title">First Procedure</div>
	<a href="Content/pdfs/procedures/cv45p0001.pdf">PDF</a>
	<div class="title">Second Procedure</div>
	<a href="Content/pdfs/procedures/cv45p0002.pdf">PDF</a>
</div>
</body></html>`

	descs, err := ExtractDocumentLinks(strings.NewReader(page), mustBase(t), "45", "1")
	require.NoError(t, err)
	require.Len(t, descs, 2)

	assert.Equal(t, "First Procedure", descs[0].Name)
	assert.Equal(t, "http://orgsyn.org/Content/pdfs/procedures/cv45p0001.pdf", descs[0].URL)
	assert.Equal(t, "45", descs[0].AnnualVolume)
	assert.Equal(t, "1", descs[0].Page)

	assert.Equal(t, "Second Procedure", descs[1].Name)
	assert.Equal(t, "http://orgsyn.org/Content/pdfs/procedures/cv45p0002.pdf", descs[1].URL)
}

func TestExtractDocumentLinksIgnoresForeignAnchors(t *testing.T) {
	page := `<html><body>
<div id="ctl00_MainContent_procedureBody">
	<div class="title">Only Procedure</div>
	<a href="Content/pdfs/procedures/cv45p0003.pdf">PDF</a>
	<a href="http://elsewhere.example/other.pdf">offsite</a>
	<a href="Content/images/figure1.png">figure</a>
	<a href="About.aspx">about</a>
</div>
</body></html>`

	descs, err := ExtractDocumentLinks(strings.NewReader(page), mustBase(t), "45", "3")
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "Only Procedure", descs[0].Name)
}

func TestExtractDocumentLinksFallbackLayout(t *testing.T) {
	// No Content anchors at all: the collapsible container layout with
	// the element id doubling as the document filename.
	page := `<html><body>
<div class="procTitle">First Title</div>
<div class="collapsibleContainer" id="CV49P0121A"></div>
<div class="procTitle">Second Title</div>
<div class="collapsibleContainer" id="CV49P0121B"></div>
</body></html>`

	descs, err := ExtractDocumentLinks(strings.NewReader(page), mustBase(t), "49", "121")
	require.NoError(t, err)
	require.Len(t, descs, 2)

	assert.Equal(t, "First Title", descs[0].Name)
	assert.Equal(t, "http://orgsyn.org/Content/pdfs/procedures/CV49P0121A.pdf", descs[0].URL)
	assert.Equal(t, "Second Title", descs[1].Name)
	assert.Equal(t, "http://orgsyn.org/Content/pdfs/procedures/CV49P0121B.pdf", descs[1].URL)
}

func TestExtractDocumentLinksTitleMismatch(t *testing.T) {
	// Two links but three titles: every link falls back to its URL
	// filename stem, nothing is mis-paired.
	page := `<html><body>
<div id="ctl00_MainContent_procedureBody">
	<div class="title">One</div>
	<div class="title">Two</div>
	<div class="title">Three</div>
	<a href="Content/pdfs/procedures/cv45p0001.pdf">PDF</a>
	<a href="Content/pdfs/procedures/cv45p0002.pdf">PDF</a>
</div>
</body></html>`

	descs, err := ExtractDocumentLinks(strings.NewReader(page), mustBase(t), "45", "1")
	require.NoError(t, err)
	require.Len(t, descs, 2)

	assert.Equal(t, "cv45p0001", descs[0].Name)
	assert.Equal(t, "cv45p0002", descs[1].Name)
}

func TestExtractDocumentLinksEmptyPage(t *testing.T) {
	descs, err := ExtractDocumentLinks(strings.NewReader("<html><body>No results.</body></html>"), mustBase(t), "45", "1")
	require.NoError(t, err)
	assert.Empty(t, descs)
}

func TestExtractDocumentLinksPrefersPrimaryLayout(t *testing.T) {
	// When Content anchors are present the container layout is ignored
	// even if container elements exist on the same page.
	page := `<html><body>
<div id="ctl00_MainContent_procedureBody">
	<div class="title">Primary</div>
	<a href="Content/pdfs/procedures/cv45p0009.pdf">PDF</a>
</div>
<div class="collapsibleContainer" id="SHOULD_NOT_APPEAR"></div>
<div class="procTitle">Ignored</div>
</body></html>`

	descs, err := ExtractDocumentLinks(strings.NewReader(page), mustBase(t), "45", "9")
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "Primary", descs[0].Name)
	assert.Equal(t, "http://orgsyn.org/Content/pdfs/procedures/cv45p0009.pdf", descs[0].URL)
}
