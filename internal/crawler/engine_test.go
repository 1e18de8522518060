package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcrawl/internal/models"
)

// site serves the given path -> html map; anything else is a 404.
func site(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func page(title, body string) string {
	return "<html><head><title>" + title + "</title></head><body><main>" + body + "</main></body></html>"
}

type fakeTranscriber struct {
	mu      sync.Mutex
	results map[string]string // url -> text; missing means failure
	calls   []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, videoURL string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, videoURL)
	text, ok := f.results[videoURL]
	return text, ok
}

type fakeRenderer struct{ dom string }

func (f fakeRenderer) Render(context.Context, string) (string, error) { return f.dom, nil }

func newTestEngine(options ...Option) *Engine {
	client := NewHTTPClient(5*time.Second, 2*time.Second, 1<<20, "").WithRetry(RetryConfig{})
	opts := DefaultOptions()
	opts.Delay = 0
	return NewEngine(client, opts, options...)
}

func TestCrawlSiteRespectsBudget(t *testing.T) {
	ts := site(t, map[string]string{
		"/": page("Home", `<p>Welcome home.</p>
			<a href="/a">Link to page a</a>
			<a href="/b">Link to page b</a>
			<a href="/c">Link to page c</a>`),
		"/a": page("A", "<p>Page a</p>"),
		"/b": page("B", "<p>Page b</p>"),
		"/c": page("C", "<p>Page c</p>"),
	})

	report, err := newTestEngine().CrawlSite(context.Background(), ts.URL+"/", 2)
	require.NoError(t, err)

	require.Len(t, report.Pages, 2)
	assert.Equal(t, ts.URL+"/", report.Pages[0].URL)
	assert.Equal(t, ts.URL+"/a", report.Pages[1].URL)
	assert.Equal(t, 2, report.Statistics.TotalPages)
	assert.Equal(t, 2, report.Statistics.SuccessfulPages)
	assert.NotEmpty(t, report.RunID)
}

func TestCrawlSiteNeverRevisits(t *testing.T) {
	ts := site(t, map[string]string{
		"/":  page("Home", `<a href="/a">Go to page a</a><a href="/#top">Back home again</a><a href="/b/">Go to page b</a>`),
		"/a": page("A", `<a href="/">Back to home</a><a href="/b">Go to page b</a><a href="/a?">Same page a</a>`),
		"/b": page("B", `<a href="/a#frag">Go to page a</a><a href="/">Back to home</a>`),
	})

	report, err := newTestEngine().CrawlSite(context.Background(), ts.URL+"/", 10)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, p := range report.Pages {
		k, ok := visitKey(p.URL)
		require.True(t, ok)
		assert.False(t, seen[k], "revisited %s", p.URL)
		seen[k] = true
	}
	assert.Len(t, report.Pages, 3)
}

func TestCrawlSiteKeepsLinksOnOrigin(t *testing.T) {
	other := site(t, map[string]string{"/": page("Other", "<p>elsewhere</p>")})
	ts := site(t, map[string]string{
		"/": page("Home", `<a href="`+other.URL+`/">Other host link</a><a href="/local">Local page link</a>`),
		"/local": page("Local", "<p>local</p>"),
	})

	report, err := newTestEngine().CrawlSite(context.Background(), ts.URL+"/", 5)
	require.NoError(t, err)

	seed, _ := url.Parse(ts.URL)
	for _, p := range report.Pages {
		if !p.OK() {
			continue
		}
		for _, l := range p.InternalLinks {
			u, err := url.Parse(l.URL)
			require.NoError(t, err)
			assert.Equal(t, seed.Scheme, u.Scheme)
			assert.Equal(t, seed.Host, u.Host)
		}
	}
	assert.Len(t, report.Pages, 2)
}

func TestCrawlSiteIsolatesPageErrors(t *testing.T) {
	ts := site(t, map[string]string{
		"/": page("Home", `<a href="/missing">Broken page link</a><a href="/ok">Working page link</a>`),
		"/ok": page("OK", "<p>fine content here</p>"),
	})

	report, err := newTestEngine().CrawlSite(context.Background(), ts.URL+"/", 5)
	require.NoError(t, err)

	require.Len(t, report.Pages, 3)
	missing := report.Pages[1]
	assert.Equal(t, models.StatusError, missing.Status)
	assert.Contains(t, missing.Error, "404")
	assert.True(t, report.Pages[2].OK())
	assert.Equal(t, 2, report.Statistics.SuccessfulPages)
}

func TestCrawlSiteTranscribesVideos(t *testing.T) {
	ts := site(t, map[string]string{
		"/": page("Videos", `<p>Watch these.</p>
			<iframe src="https://www.youtube.com/embed/good1" title="Good"></iframe>
			<iframe src="https://www.youtube.com/embed/bad22" title="Bad"></iframe>
			<iframe src="https://www.youtube.com/embed/third" title="Third"></iframe>`),
	})
	tr := &fakeTranscriber{results: map[string]string{
		"https://www.youtube.com/watch?v=good1": "hello there world",
	}}

	report, err := newTestEngine(WithTranscriber(tr)).CrawlSite(context.Background(), ts.URL+"/", 1)
	require.NoError(t, err)

	// bounded to two videos per page
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=good1",
		"https://www.youtube.com/watch?v=bad22",
	}, tr.calls)

	require.Len(t, report.VideoTranscripts, 1)
	vt := report.VideoTranscripts[0]
	assert.Equal(t, "Good", vt.VideoTitle)
	assert.Equal(t, 3, vt.WordCount)
	assert.Equal(t, ts.URL+"/", vt.PageURL)

	// the failed video is still listed on the page
	require.Len(t, report.Pages[0].Videos, 3)
	assert.Equal(t, "https://www.youtube.com/watch?v=bad22", report.Pages[0].Videos[1].URL)
	assert.Equal(t, 3, report.Statistics.TotalVideos)
	assert.Equal(t, 1, report.Statistics.TranscribedVideos)
	assert.Contains(t, report.VideoContent, "TRANSCRIPT: hello there world")
}

func TestCrawlSiteRejectsMalformedSeed(t *testing.T) {
	_, err := newTestEngine().CrawlSite(context.Background(), "ftp:/nope", 2)
	assert.True(t, errors.Is(err, ErrInvalidURL))
}

func TestCrawlSitesMergesAndIsolates(t *testing.T) {
	a := site(t, map[string]string{"/": page("A", "<p>one two three</p>")})
	b := site(t, map[string]string{"/": page("B", "<p>four five</p>")})

	report := newTestEngine().CrawlSites(context.Background(), []string{a.URL + "/", "::bad::", b.URL + "/"}, 3)

	require.Len(t, report.Pages, 3)
	assert.Equal(t, models.StatusError, report.Pages[1].Status)
	assert.Equal(t, 3, report.Statistics.TotalPages)
	assert.Equal(t, 2, report.Statistics.SuccessfulPages)
	assert.Equal(t, 5, report.Statistics.TotalWords)
	assert.Len(t, report.Seeds, 3)
}

func TestExtractSinglePageFailure(t *testing.T) {
	ts := site(t, map[string]string{})

	report, err := newTestEngine().ExtractSinglePage(context.Background(), ts.URL+"/gone")
	require.NoError(t, err)
	assert.NotEmpty(t, report.Error)
	assert.Zero(t, report.Statistics.TotalPages)
}

func TestRobotsDisallowedPageIsRecorded(t *testing.T) {
	ts := site(t, map[string]string{
		"/":          page("Home", `<a href="/private/x">Private area link</a><a href="/public">Public area link</a>`),
		"/public":    page("Public", "<p>ok</p>"),
		"/private/x": page("Private", "<p>secret</p>"),
	})
	robotsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		ts.Config.Handler.ServeHTTP(w, r)
	}))
	defer robotsSrv.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1<<20, "")
	e := newTestEngine(WithRobots(NewRobotsPolicy(client.Client(), client.UserAgent())))
	report, err := e.CrawlSite(context.Background(), robotsSrv.URL+"/", 5)
	require.NoError(t, err)

	require.Len(t, report.Pages, 3)
	assert.Equal(t, ErrDisallowed.Error(), report.Pages[1].Error)
	assert.True(t, report.Pages[2].OK())
}

func TestRendererUsedForEmptyPages(t *testing.T) {
	ts := site(t, map[string]string{"/": `<html><body><div id="app"></div></body></html>`})
	e := newTestEngine(WithRenderer(fakeRenderer{dom: page("Rendered", "<p>client side content</p>")}))

	report, err := e.CrawlSite(context.Background(), ts.URL+"/", 1)
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.Equal(t, "Rendered", report.Pages[0].Title)
	assert.Equal(t, 3, report.Pages[0].WordCount)
}

func TestReportTopPagesAndContent(t *testing.T) {
	ts := site(t, map[string]string{
		"/":     page("Short", `<p>tiny</p><a href="/long">The long article</a>`),
		"/long": page("Long", "<p>"+strings.Repeat("gopher ", 50)+"</p>"),
	})

	report, err := newTestEngine().CrawlSite(context.Background(), ts.URL+"/", 5)
	require.NoError(t, err)

	require.Len(t, report.TopPages, 2)
	assert.Equal(t, "Long", report.TopPages[0].Title)
	assert.Contains(t, report.AllContent, "PAGE: Long\nURL: "+ts.URL+"/long\nCONTENT: gopher")
	assert.Contains(t, report.Topics, "gopher")
	for _, w := range []string{"page", "url", "content", "http", "127"} {
		assert.NotContains(t, report.Topics, w)
	}
}

func TestPageRecordCarriesMetadata(t *testing.T) {
	ts := site(t, map[string]string{
		"/": `<html lang="pt-BR"><head><title>Meta</title><meta name="description" content="About this page"></head>` +
			`<body><main><p>some words here</p></main></body></html>`,
	})

	report, err := newTestEngine().CrawlSite(context.Background(), ts.URL+"/", 1)
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.Equal(t, "About this page", report.Pages[0].Description)
	assert.Equal(t, "pt-BR", report.Pages[0].Language)
}

func TestCrawlStopsOnCancelledContext(t *testing.T) {
	ts := site(t, map[string]string{"/": page("Home", "<p>x</p>")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestEngine().CrawlSite(ctx, ts.URL+"/", 3)
	require.NoError(t, err)
	assert.Empty(t, report.Pages)
}
