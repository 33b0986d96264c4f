package orgsyn

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"orgsynscraper/pkg/errors"
	"orgsynscraper/pkg/logger"
	"orgsynscraper/pkg/retry"
)

// Defaults for a client talking to the production site.
const (
	DefaultBaseURL   = "http://orgsyn.org"
	DefaultUserAgent = "Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)"
	DefaultTimeout   = 15 * time.Second

	defaultMaxAttempts = 5
)

// Options configures a Client. Zero values fall back to the production
// defaults.
type Options struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     retry.BackoffStrategy
	Logger      logger.Logger
}

// Client is one postback conversation with the site: an HTTP transport
// with a fixed header set plus the token triple threaded through every
// request. A Client is not safe for concurrent use; concurrent workers
// each create their own.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	headers     map[string]string
	tokens      TokenSet
	maxAttempts int
	backoff     retry.BackoffStrategy
	logger      logger.Logger
}

// NewClient creates a client for a new, unseeded session. The first
// call must be RequestVolumes, which seeds the token set.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DefaultLinearBackoff()
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
		},
		baseURL: baseURL,
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept":          "*/*",
			"Accept-Encoding": "gzip,deflate,sdch",
			"Accept-Language": "en-US,en;q=0.8",
		},
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		logger:      opts.Logger,
	}, nil
}

// BaseURL returns the site base URL the client talks to.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

// Tokens returns the session's current token set.
func (c *Client) Tokens() TokenSet {
	return c.tokens
}

// RequestVolumes fetches the landing page, seeds the session tokens
// from it and returns the annual volume identifiers from the volume
// select control in document order.
//
// After exhausting retries on transport failure the error is logged and
// an empty list is returned; the caller treats that as "no data
// available this round".
func (c *Client) RequestVolumes(ctx context.Context) ([]string, error) {
	res, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	})
	if err != nil {
		if c.degrade(err, "could not fetch the volume list", nil) {
			return []string{}, nil
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.body))
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse landing page: %v", err),
		}
	}

	// The token triple is always replaced as a whole from one response.
	c.tokens = extractSeedTokens(doc)
	if c.tokens.Empty() {
		c.logger.Warn("landing page carried no session tokens; the next postback will be rejected")
	}

	volumes := extractOptionValues(doc.Find(fmt.Sprintf("select[id=%q]", volumeSelectID)))

	c.logger.DebugWithFields("volume list fetched", map[string]interface{}{
		"volumes": len(volumes),
	})

	return volumes, nil
}

// RequestPagesOfVolume issues the async "select annual volume" postback
// and returns the page identifiers of that volume. The refreshed token
// triple is taken from the partial response frame.
//
// The same degrade-to-empty policy as RequestVolumes applies to
// transport failure; a malformed partial frame surfaces as a protocol
// error instead.
func (c *Client) RequestPagesOfVolume(ctx context.Context, volume string) ([]string, error) {
	form := pagesPostbackForm(volume, c.tokens)

	res, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newPostRequest(ctx, form, nil)
	})
	if err != nil {
		if c.degrade(err, "could not fetch the page list", map[string]interface{}{"volume": volume}) {
			return []string{}, nil
		}
		return nil, err
	}

	frame, err := DecodeFrame(res.body)
	if err != nil {
		return nil, err
	}

	c.tokens = frame.Tokens

	pages, err := parseOptionsMarkup(frame.OptionsMarkup)
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("page list fetched", map[string]interface{}{
		"volume": volume,
		"pages":  len(pages),
	})

	return pages, nil
}

// RequestVolumePagePDFLinks issues the "search within volume+page" form
// submission and extracts the document descriptors from the response.
//
// Some pages redirect straight to the document; the final URL ending in
// the document extension short-circuits extraction with a single
// descriptor named by the URL filename stem.
func (c *Client) RequestVolumePagePDFLinks(ctx context.Context, volume, page string) ([]Descriptor, error) {
	form := searchPostbackForm(volume, page, c.tokens)
	cookie := &http.Cookie{Name: quickSearchTabCookieName, Value: quickSearchTabCookieValue}

	res, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newPostRequest(ctx, form, cookie)
	})
	if err != nil {
		if c.degrade(err, "could not fetch the document links", map[string]interface{}{
			"volume": volume,
			"page":   page,
		}) {
			return []Descriptor{}, nil
		}
		return nil, err
	}

	if strings.HasSuffix(res.finalURL.Path, documentExtension) {
		name := URLStem(res.finalURL.String())
		c.logger.DebugWithFields("server redirected straight to the document", map[string]interface{}{
			"volume": volume,
			"page":   page,
			"url":    res.finalURL.String(),
		})
		return []Descriptor{NewDescriptor(volume, page, name, res.finalURL.String())}, nil
	}

	descriptors, err := ExtractDocumentLinks(strings.NewReader(res.body), c.baseURL, volume, page)
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("document links extracted", map[string]interface{}{
		"volume":    volume,
		"page":      page,
		"documents": len(descriptors),
	})

	return descriptors, nil
}

// DownloadDocument fetches a document's bytes, retrying transient
// failures with the session backoff. Unlike the listing calls the error
// is returned after exhaustion so the caller can record the failed
// transfer.
func (c *Client) DownloadDocument(ctx context.Context, rawURL string) ([]byte, error) {
	res, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return nil, err
	}

	return []byte(res.body), nil
}

// siteResponse is the decoded result of one request: the decompressed
// body and the final URL after redirects.
type siteResponse struct {
	body     string
	finalURL *url.URL
}

// newPostRequest builds a form POST to the site root with an optional
// extra cookie.
func (c *Client) newPostRequest(ctx context.Context, form url.Values, cookie *http.Cookie) (*http.Request, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL.String(),
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req, nil
}

// doWithRetry runs one request builder through the retry policy. The
// builder is invoked per attempt so the request body can be re-read.
func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*siteResponse, error) {
	return retry.DoWithResult(func() (*siteResponse, error) {
		req, err := build()
		if err != nil {
			return nil, &errors.Error{
				Type:    errors.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to build request: %v", err),
			}
		}
		return c.do(req)
	}, &retry.Config{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	})
}

// do performs a single request with the fixed header set applied.
func (c *Client) do(req *http.Request) (*siteResponse, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return &siteResponse{
		body:     body,
		finalURL: resp.Request.URL,
	}, nil
}

// checkResponseStatus maps HTTP status codes onto the error taxonomy.
func checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	default:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// readBody reads the response body, undoing the content encodings we
// advertise in Accept-Encoding. Setting that header by hand disables
// the transport's transparent decompression.
func readBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer zr.Close()
		reader = zr
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// degrade implements the listing-call error boundary: retry exhaustion
// on transient failure is logged and reported as degradable, so the
// caller can answer with an empty result. Structural errors (protocol,
// parsing, validation, cancellation) are not degradable and pass
// through to the caller.
func (c *Client) degrade(err error, msg string, fields map[string]interface{}) bool {
	var typed *errors.Error
	if !stderrors.As(err, &typed) {
		return false
	}

	switch typed.Type {
	case errors.ErrorTypeProtocol, errors.ErrorTypeParsing, errors.ErrorTypeValidation:
		return false
	}

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["error"] = err.Error()
	fields["attempts"] = c.maxAttempts
	c.logger.ErrorWithFields(msg, fields)
	return true
}
