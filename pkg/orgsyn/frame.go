package orgsyn

import (
	"strings"

	"orgsynscraper/pkg/errors"
)

// Offsets into the pipe-delimited partial response returned by the
// asynchronous volume postback. They mirror the exact frame layout the
// server emits and are a versioned contract with it: when the site
// changes, these move.
const (
	frameDelimiter = "|"

	frameOptionsOffset            = 11
	frameViewStateOffset          = 51
	frameViewStateGeneratorOffset = 55
	frameEventValidationOffset    = 59
)

// Frame is the decoded form of a partial postback response: the markup
// fragment holding the page select options plus the refreshed token set.
type Frame struct {
	OptionsMarkup string
	Tokens        TokenSet
}

// DecodeFrame splits a partial response body on the frame delimiter and
// reads the options fragment and the three tokens from their fixed
// offsets. A body with too few segments means the server-side frame
// layout changed; that is reported as a protocol error, not a network
// error, and is never retried.
func DecodeFrame(body string) (*Frame, error) {
	parts := strings.Split(body, frameDelimiter)

	if len(parts) <= frameEventValidationOffset {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeProtocol,
			Message: "partial response has too few segments; the server frame layout changed",
		}
	}

	return &Frame{
		OptionsMarkup: parts[frameOptionsOffset],
		Tokens: TokenSet{
			ViewState:          parts[frameViewStateOffset],
			ViewStateGenerator: parts[frameViewStateGeneratorOffset],
			EventValidation:    parts[frameEventValidationOffset],
		},
	}, nil
}
