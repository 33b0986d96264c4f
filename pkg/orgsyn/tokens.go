package orgsyn

// Hidden input identifiers carrying the ASP.NET validation tokens.
const (
	viewStateID          = "__VIEWSTATE"
	viewStateGeneratorID = "__VIEWSTATEGENERATOR"
	eventValidationID    = "__EVENTVALIDATION"
)

// TokenSet holds the three opaque state tokens of one postback
// conversation. All three are always drawn from the same response; the
// server rejects postbacks that mix tokens from different responses or
// sessions. A missing token is kept as the empty string and surfaces as
// a server-side rejection on the next postback.
type TokenSet struct {
	ViewState          string
	ViewStateGenerator string
	EventValidation    string
}

// Empty reports whether none of the tokens are set.
func (t TokenSet) Empty() bool {
	return t.ViewState == "" && t.ViewStateGenerator == "" && t.EventValidation == ""
}
