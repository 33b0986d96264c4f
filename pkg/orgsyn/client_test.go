package orgsyn

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgsynscraper/pkg/config"
	"orgsynscraper/pkg/logger"
	"orgsynscraper/pkg/retry"
)

func quietLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.New(&config.LoggingConfig{Level: "disabled"})
	require.NoError(t, err)
	return log
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		MaxAttempts: 5,
		Backoff:     &retry.ConstantBackoff{Delay: 0},
		Logger:      quietLogger(t),
	})
	require.NoError(t, err)
	return client
}

func landingPageHTML(viewstate, generator, validation string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body><form method="post">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="%s" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="%s" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="%s" />
<select id="ctl00_QuickSearchAnnVolList1">
<option value="">Select Ann. Volume</option>
<option value="45">45</option>
<option value="46">46</option>
</select>
</form></body></html>`, viewstate, generator, validation)
}

func pagesFrameBody(options, viewstate, generator, validation string) string {
	parts := make([]string, frameEventValidationOffset+1)
	parts[frameOptionsOffset] = options
	parts[frameViewStateOffset] = viewstate
	parts[frameViewStateGeneratorOffset] = generator
	parts[frameEventValidationOffset] = validation
	return strings.Join(parts, frameDelimiter)
}

func TestRequestVolumesSeedsTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, landingPageHTML("vs1", "gen1", "ev1"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	volumes, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"45", "46"}, volumes)
	assert.Equal(t, TokenSet{
		ViewState:          "vs1",
		ViewStateGenerator: "gen1",
		EventValidation:    "ev1",
	}, client.Tokens())
}

func TestRequestVolumesGzipResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		fmt.Fprint(gz, landingPageHTML("vs1", "gen1", "ev1"))
		gz.Close()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	volumes, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"45", "46"}, volumes)
}

func TestRequestVolumesDegradesAfterRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	volumes, err := client.RequestVolumes(context.Background())

	require.NoError(t, err, "retry exhaustion on a listing call degrades, it does not raise")
	assert.Empty(t, volumes)
	assert.Equal(t, int32(5), atomic.LoadInt32(&attempts), "exactly five attempts before degrading")
}

func TestRequestVolumesMissingTokensNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><select id="ctl00_QuickSearchAnnVolList1"><option value="45">45</option></select></body></html>`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	volumes, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"45"}, volumes)
	assert.True(t, client.Tokens().Empty())
}

func TestRequestPagesOfVolumeThreadsTokens(t *testing.T) {
	frame := pagesFrameBody(
		`<select><option value="">Select</option><option value="1">1</option><option value="14">14</option></select>`,
		"vs2", "gen2", "ev2",
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, landingPageHTML("vs1", "gen1", "ev1"))
			return
		}

		require.NoError(t, r.ParseForm())
		// The postback must carry the tokens of the previous response
		assert.Equal(t, "vs1", r.PostForm.Get("__VIEWSTATE"))
		assert.Equal(t, "gen1", r.PostForm.Get("__VIEWSTATEGENERATOR"))
		assert.Equal(t, "ev1", r.PostForm.Get("__EVENTVALIDATION"))
		assert.Equal(t, "45", r.PostForm.Get("ctl00$QuickSearchAnnVolList1"))
		assert.Equal(t, "true", r.PostForm.Get("__ASYNCPOST"))
		assert.Equal(t, "ctl00$QuickSearchAnnVolList1", r.PostForm.Get("__EVENTTARGET"))

		fmt.Fprint(w, frame)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)

	pages, err := client.RequestPagesOfVolume(context.Background(), "45")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "14"}, pages)
	assert.Equal(t, TokenSet{
		ViewState:          "vs2",
		ViewStateGenerator: "gen2",
		EventValidation:    "ev2",
	}, client.Tokens(), "tokens must be refreshed from the partial frame")
}

func TestRequestPagesOfVolumeTruncatedFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, landingPageHTML("vs1", "gen1", "ev1"))
			return
		}
		fmt.Fprint(w, "1|updatePanel|too short")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)

	_, err = client.RequestPagesOfVolume(context.Background(), "45")
	require.Error(t, err, "a frame layout change must surface as a protocol error")
}

func TestRequestVolumePagePDFLinks(t *testing.T) {
	resultPage := `<html><body>
<div id="ctl00_MainContent_procedureBody">
<div class="title">A Procedure</div>
<a href="Content/pdfs/procedures/cv45p0012.pdf">PDF</a>
</div>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, landingPageHTML("vs1", "gen1", "ev1"))
			return
		}

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "QuickSearchVolSrc", r.PostForm.Get("__EVENTTARGET"))
		assert.Equal(t, "submitsearch", r.PostForm.Get("__EVENTARGUMENT"))
		assert.Equal(t, "12", r.PostForm.Get("ctl00$PageTextBoxDrop"))
		assert.Equal(t, "1", r.PostForm.Get("ctl00$WarningAccepted"))

		cookie, err := r.Cookie("quickSearchTab")
		require.NoError(t, err, "the search postback must pin the quick search tab")
		assert.Equal(t, "0", cookie.Value)

		fmt.Fprint(w, resultPage)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)

	descs, err := client.RequestVolumePagePDFLinks(context.Background(), "45", "12")
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "A Procedure", descs[0].Name)
	assert.Equal(t, "45", descs[0].AnnualVolume)
	assert.Equal(t, "12", descs[0].Page)
}

func TestRequestVolumePagePDFLinksRedirectShortcut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/":
			fmt.Fprint(w, landingPageHTML("vs1", "gen1", "ev1"))
		case r.Method == http.MethodPost:
			http.Redirect(w, r, "/Content/pdfs/procedures/foo.pdf", http.StatusFound)
		default:
			fmt.Fprint(w, "%PDF-1.4 fake document")
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)

	descs, err := client.RequestVolumePagePDFLinks(context.Background(), "88", "1")
	require.NoError(t, err)
	require.Len(t, descs, 1)

	assert.Equal(t, "foo", descs[0].Name)
	assert.True(t, strings.HasSuffix(descs[0].URL, "/Content/pdfs/procedures/foo.pdf"))
}

func TestDownloadDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "%PDF-1.4 fake document")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	data, err := client.DownloadDocument(context.Background(), server.URL+"/foo.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake document", string(data))
}

func TestDownloadDocumentFailsAfterRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.DownloadDocument(context.Background(), server.URL+"/foo.pdf")

	require.Error(t, err, "downloads surface the failure so the caller can record it")
	assert.Equal(t, int32(5), atomic.LoadInt32(&attempts))
}

func TestClientSendsFixedHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "*/*", r.Header.Get("Accept"))
		assert.Equal(t, "en-US,en;q=0.8", r.Header.Get("Accept-Language"))
		fmt.Fprint(w, landingPageHTML("vs1", "gen1", "ev1"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RequestVolumes(context.Background())
	require.NoError(t, err)
}
