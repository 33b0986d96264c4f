package orgsyn

import "net/url"

// Form field names shared by both postback flows. The ctl00$ prefixes
// come from the site's ASP.NET control tree and are part of the wire
// contract.
const (
	fieldScriptManager   = "ctl00$ScriptManager1"
	fieldVolumeSelect    = "ctl00$QuickSearchAnnVolList1"
	fieldPageSelect      = "ctl00$PageTextBoxDrop"
	fieldTabTextBox      = "ctl00$tab2_TextBox"
	fieldTabClientState  = "ctl00$TBWE3_ClientState"
	fieldSourceType      = "ctl00$SrcType"
	fieldQSAnnVol        = "ctl00$MainContent$QSAnnVol"
	fieldQSCollVol       = "ctl00$MainContent$QSCollVol"
	fieldSearchPlace     = "ctl00$MainContent$searchplace"
	fieldQuickSearchText = "ctl00$MainContent$TextQuickSearch"
	fieldQSClientState   = "ctl00$MainContent$TBWE2_ClientState"
	fieldStructure       = "ctl00$MainContent$SearchStructure"
	fieldStructureMol    = "ctl00$MainContent$SearchStructureMol"
	fieldHiddenSrcType   = "ctl00$HidSrcType"
	fieldWarningAccepted = "ctl00$WarningAccepted"
	fieldDirection       = "ctl00$Direction"

	fieldLastFocus     = "__LASTFOCUS"
	fieldEventTarget   = "__EVENTTARGET"
	fieldEventArgument = "__EVENTARGUMENT"
	fieldAsyncPost     = "__ASYNCPOST"
)

// quickSearchTabCookie pins the quick search tab the search postback
// was issued from; the server ignores the request without it.
const (
	quickSearchTabCookieName  = "quickSearchTab"
	quickSearchTabCookieValue = "0"
)

// pagesPostbackForm builds the field set of the "select annual volume"
// async postback, which makes the server answer with the partial frame
// listing that volume's pages.
func pagesPostbackForm(volume string, tokens TokenSet) url.Values {
	return url.Values{
		fieldScriptManager:   {"ctl00$UpdatePanel1|ctl00$QuickSearchAnnVolList1"},
		fieldVolumeSelect:    {volume},
		fieldTabTextBox:      {""},
		fieldTabClientState:  {""},
		fieldSourceType:      {"Anywhere"},
		fieldQSAnnVol:        {"Select Ann. Volume"},
		fieldQSCollVol:       {"Select Coll. Volume"},
		fieldSearchPlace:     {"publicationRadio"},
		fieldQuickSearchText: {""},
		fieldQSClientState:   {""},
		fieldStructure:       {""},
		fieldStructureMol:    {""},
		fieldHiddenSrcType:   {""},
		fieldWarningAccepted: {"0"},
		fieldDirection:       {""},
		fieldLastFocus:       {""},
		fieldEventTarget:     {"ctl00$QuickSearchAnnVolList1"},
		fieldEventArgument:   {""},
		fieldAsyncPost:       {"true"},
		viewStateID:          {tokens.ViewState},
		viewStateGeneratorID: {tokens.ViewStateGenerator},
		eventValidationID:    {tokens.EventValidation},
	}
}

// searchPostbackForm builds the field set of the "search within
// volume+page" full form submission, answered with a search result page
// or a redirect straight to the document.
func searchPostbackForm(volume, page string, tokens TokenSet) url.Values {
	return url.Values{
		fieldVolumeSelect:    {volume},
		fieldPageSelect:      {page},
		fieldTabTextBox:      {""},
		fieldTabClientState:  {""},
		fieldSourceType:      {"Anywhere"},
		fieldQSAnnVol:        {"Select Ann. Volume"},
		fieldQSCollVol:       {"Select Coll. Volume"},
		fieldSearchPlace:     {"publicationRadio"},
		fieldQuickSearchText: {""},
		fieldQSClientState:   {""},
		fieldStructure:       {""},
		fieldStructureMol:    {""},
		fieldHiddenSrcType:   {"Citation"},
		fieldWarningAccepted: {"1"},
		fieldDirection:       {""},
		fieldLastFocus:       {""},
		fieldEventTarget:     {"QuickSearchVolSrc"},
		fieldEventArgument:   {"submitsearch"},
		viewStateID:          {tokens.ViewState},
		viewStateGeneratorID: {tokens.ViewStateGenerator},
		eventValidationID:    {tokens.EventValidation},
	}
}
