
package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `<!doctype html><html lang="en"><head>
<title>Test Page</title>
<meta name="description" content="A short description">
<meta property="og:type" content="article">
<script>var tracking = "do not index";</script>
</head><body>
<header><a href="/header-link-page">Header navigation link</a></header>
<nav><a href="/menu-entry-page">Menu entry link text</a></nav>
<article>
<h1>Hello</h1><h2>Subtitle</h2>
<p>Go is great for network services.</p>
<p>Read the <a href="/guides/getting-started#top">getting started guide</a> or <a href="/about">About</a>.</p>
<p><a href="https://other.example.org/page">External long link text</a></p>
<p><a href="http://example.com/plain-http">Different scheme link</a></p>
<iframe src="https://www.youtube.com/embed/abc123?rel=0" title="Launch video"></iframe>
<iframe src="//player.vimeo.com/video/76979871"></iframe>
<iframe src="https://maps.example.com/embed/xyz"></iframe>
<video><source src="/media/clip.mp4"></video>
<img src="/img/hero.jpg" alt="hero">
<img src="/img/site-logo.png" alt="logo">
<img src="/img/user-avatar.png">
</article>
<footer>Footer text should be removed</footer>
</body></html>`

func extract(t *testing.T, body, page string, opts Options) Document {
	t.Helper()
	u, err := url.Parse(page)
	require.NoError(t, err)
	doc, err := New(opts).Extract(strings.NewReader(body), "text/html; charset=utf-8", u, u)
	require.NoError(t, err)
	return doc
}

func TestExtract(t *testing.T) {
	page := extract(t, sampleHTML, "https://example.com/", DefaultOptions())

	assert.Equal(t, "Test Page", page.Title)
	assert.Equal(t, "article", page.OGType)
	assert.Equal(t, "en", page.Language)
	assert.Equal(t, "A short description", page.Description)
	assert.NotZero(t, page.WordCount)
	assert.Contains(t, page.Text, "Go is great for network services.")
	assert.NotContains(t, page.Text, "do not index")
	assert.NotContains(t, page.Text, "Footer text")
}

func TestExtractInternalLinksShareOrigin(t *testing.T) {
	page := extract(t, sampleHTML, "https://example.com/", DefaultOptions())

	require.Len(t, page.Links, 1)
	assert.Equal(t, "https://example.com/guides/getting-started", page.Links[0].URL)
	assert.Equal(t, "getting started guide", page.Links[0].Text)
	for _, l := range page.Links {
		u, err := url.Parse(l.URL)
		require.NoError(t, err)
		assert.Equal(t, "https", u.Scheme)
		assert.Equal(t, "example.com", u.Host)
	}
}

func TestExtractVideos(t *testing.T) {
	page := extract(t, sampleHTML, "https://example.com/", DefaultOptions())

	require.Len(t, page.Videos, 3)
	assert.Equal(t, "YouTube", page.Videos[0].Platform)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", page.Videos[0].URL)
	assert.Equal(t, "Launch video", page.Videos[0].Title)
	assert.Equal(t, "https://vimeo.com/76979871", page.Videos[1].URL)
	assert.Equal(t, "HTML5", page.Videos[2].Platform)
	assert.Equal(t, "https://example.com/media/clip.mp4", page.Videos[2].URL)
}

func TestExtractImagesSkipsDecorations(t *testing.T) {
	page := extract(t, sampleHTML, "https://example.com/", DefaultOptions())

	require.Len(t, page.Images, 1)
	assert.Equal(t, "https://example.com/img/hero.jpg", page.Images[0].URL)
}

func TestExtractCapsContent(t *testing.T) {
	body := "<html><body><main>" + strings.Repeat("word ", 3000) + "</main></body></html>"
	opts := DefaultOptions()
	opts.ContentCap = 100
	page := extract(t, body, "https://example.com/", opts)

	assert.Len(t, page.Text, 100)
	assert.Equal(t, 3000, page.WordCount)
}

func TestExtractLinkCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 0; i < 40; i++ {
		b.WriteString(`<a href="/p/` + strings.Repeat("x", i+1) + `">a long enough link</a>`)
	}
	b.WriteString("</main></body></html>")
	opts := DefaultOptions()
	opts.MaxLinks = 7
	page := extract(t, b.String(), "https://example.com/", opts)

	assert.Len(t, page.Links, 7)
}

func TestExtractFallsBackToBody(t *testing.T) {
	body := `<html><head><title>t</title></head><body><div>Plain body text only</div></body></html>`
	opts := DefaultOptions()
	opts.Readability = false
	page := extract(t, body, "https://example.com/", opts)

	assert.Equal(t, "Plain body text only", page.Text)
	assert.Equal(t, 4, page.WordCount)
}

func TestCanonicalVideo(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/embed/abc123":          "https://www.youtube.com/watch?v=abc123",
		"https://youtube-nocookie.com/embed/Zx_9-q?x=1": "https://www.youtube.com/watch?v=Zx_9-q",
		"https://player.vimeo.com/video/42":             "https://vimeo.com/42",
	}
	for in, want := range cases {
		u, _ := url.Parse(in)
		_, got, ok := CanonicalVideo(u)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	u, _ := url.Parse("https://www.youtube.com/watch?v=abc")
	_, _, ok := CanonicalVideo(u)
	assert.False(t, ok)
}

func TestExtractDropsAside(t *testing.T) {
	body := `<html><body><main><p>Main story text.</p><aside>Related sidebar links</aside></main></body></html>`
	page := extract(t, body, "https://example.com/", DefaultOptions())

	assert.Contains(t, page.Text, "Main story text.")
	assert.NotContains(t, page.Text, "sidebar")
}

func TestSameOriginIgnoresDefaultPort(t *testing.T) {
	cases := []struct {
		link, origin string
		want         bool
	}{
		{"https://example.com/a", "https://example.com:443/", true},
		{"https://EXAMPLE.com:443/a", "https://example.com/", true},
		{"http://example.com:80/a", "http://example.com/", true},
		{"https://example.com:8443/a", "https://example.com/", false},
		{"http://example.com:443/a", "http://example.com/", false},
		{"http://example.com/a", "https://example.com/", false},
	}
	for _, c := range cases {
		u, _ := url.Parse(c.link)
		o, _ := url.Parse(c.origin)
		assert.Equal(t, c.want, SameOrigin(u, o), "%s vs %s", c.link, c.origin)
	}
}

func TestExtractLinksWithExplicitDefaultPortSeed(t *testing.T) {
	body := `<html><body><main><a href="https://example.com/docs/intro">Introduction to the docs</a></main></body></html>`
	page := extract(t, body, "https://example.com:443/", DefaultOptions())

	require.Len(t, page.Links, 1)
	assert.Equal(t, "https://example.com/docs/intro", page.Links[0].URL)
}
