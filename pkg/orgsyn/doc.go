// Package orgsyn implements the stateful crawl client for the OrgSyn
// web-forms site.
//
// The site has no API. Browsing is a sequence of ASP.NET postbacks that
// must carry three opaque validation tokens (__VIEWSTATE,
// __VIEWSTATEGENERATOR, __EVENTVALIDATION) issued by the previous
// response. A Client owns one such postback conversation: it seeds its
// tokens from the landing page, threads them through every subsequent
// request and replaces them from each response. Tokens are never shared
// between clients; concurrent workers each run their own Client.
//
// Two response formats are handled: full HTML pages (landing page and
// search results) and the pipe-delimited partial frames returned by
// asynchronous postbacks (volume selection). See frame.go for the fixed
// frame layout and extract.go for the markup fallback strategies.
package orgsyn
