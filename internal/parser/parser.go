
package parser

import (
	"bytes"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"trendcrawl/internal/models"
)

// Options bound what a single page may contribute to a crawl.
type Options struct {
	ContentCap  int  // max characters of captured text
	MinLinkText int  // link text must be longer than this
	MaxLinks    int  // max internal link candidates per page
	MaxImages   int  // max images per page
	Readability bool // try a readability pass before whole-body text
}

func DefaultOptions() Options {
	return Options{
		ContentCap:  5000,
		MinLinkText: 5,
		MaxLinks:    20,
		MaxImages:   10,
		Readability: true,
	}
}

// Document is what the parser extracts from one HTML page.
type Document struct {
	Title       string
	Description string
	OGType      string
	Language    string
	Headings    []string
	Text        string // main body text, capped to ContentCap
	WordCount   int    // words in the uncapped main text
	Links       []models.LinkRef
	Videos      []models.VideoRef
	Images      []models.ImageRef
}

type Parser struct {
	opts Options
}

func New(opts Options) *Parser {
	def := DefaultOptions()
	if opts.ContentCap <= 0 {
		opts.ContentCap = def.ContentCap
	}
	if opts.MinLinkText < 0 {
		opts.MinLinkText = def.MinLinkText
	}
	if opts.MaxLinks <= 0 {
		opts.MaxLinks = def.MaxLinks
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = def.MaxImages
	}
	return &Parser{opts: opts}
}

// content containers tried in order before falling back to the whole body
var contentSelectors = []string{
	"article", "main", ".content", ".post", ".entry",
	".article-content", ".post-content", ".entry-content",
}

// Extract parses an HTML body fetched from pageURL. Internal links are only
// kept when they share scheme and host with origin (the crawl seed).
func (p *Parser) Extract(r io.Reader, contentType string, pageURL, origin *url.URL) (Document, error) {
	// Decode to UTF-8 if needed
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return Document{}, err
	}
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return Document{}, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return Document{}, err
	}

	out := Document{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Description: strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", "")),
		OGType:      strings.TrimSpace(doc.Find(`meta[property="og:type"]`).AttrOr("content", "")),
		Language:    strings.TrimSpace(doc.Find("html").AttrOr("lang", "")),
	}
	if out.Title == "" {
		out.Title = "Untitled"
	}
	if out.Description == "" {
		out.Description = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	doc.Find("script,noscript,style,nav,header,footer,aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	doc.Find("h1,h2,h3").Each(func(i int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			out.Headings = append(out.Headings, t)
		}
	})

	text := p.mainText(doc, pageURL)
	out.WordCount = len(strings.Fields(text))
	out.Text = truncateRunes(text, p.opts.ContentCap)

	out.Links = p.internalLinks(doc, pageURL, origin)
	out.Videos = extractVideos(doc, pageURL)
	out.Images = p.images(doc, pageURL)
	return out, nil
}

func (p *Parser) mainText(doc *goquery.Document, pageURL *url.URL) string {
	for _, sel := range contentSelectors {
		if t := textOf(doc.Find(sel).First()); t != "" {
			return t
		}
	}
	if p.opts.Readability {
		if raw, err := doc.Html(); err == nil {
			if article, err := readability.FromReader(strings.NewReader(raw), pageURL); err == nil {
				if t := collapse(article.TextContent); t != "" {
					return t
				}
			}
		}
	}
	return textOf(doc.Find("body"))
}

func (p *Parser) internalLinks(doc *goquery.Document, pageURL, origin *url.URL) []models.LinkRef {
	var links []models.LinkRef
	seen := map[string]bool{}
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		u, ok := resolve(pageURL, href)
		if !ok || !SameOrigin(u, origin) {
			return true
		}
		u.Fragment = ""
		abs := u.String()
		txt := collapse(s.Text())
		if utf8.RuneCountInString(txt) <= p.opts.MinLinkText || seen[abs] {
			return true
		}
		seen[abs] = true
		links = append(links, models.LinkRef{URL: abs, Text: truncateRunes(txt, 100)})
		return len(links) < p.opts.MaxLinks
	})
	return links
}

var skipImage = []string{"icon", "logo", "avatar", "thumb"}

func (p *Parser) images(doc *goquery.Document, pageURL *url.URL) []models.ImageRef {
	var imgs []models.ImageRef
	doc.Find("img[src]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		lower := strings.ToLower(src)
		if src == "" || strings.HasPrefix(lower, "data:") {
			return true
		}
		for _, k := range skipImage {
			if strings.Contains(lower, k) {
				return true
			}
		}
		u, ok := resolve(pageURL, src)
		if !ok {
			return true
		}
		imgs = append(imgs, models.ImageRef{
			URL:   u.String(),
			Alt:   s.AttrOr("alt", ""),
			Title: s.AttrOr("title", ""),
		})
		return len(imgs) < p.opts.MaxImages
	})
	return imgs
}

// SameOrigin reports scheme and host equality. An explicit default port
// (80 for http, 443 for https) matches its absence.
func SameOrigin(u, origin *url.URL) bool {
	if u == nil || origin == nil {
		return false
	}
	return strings.EqualFold(u.Scheme, origin.Scheme) && hostKey(u) == hostKey(origin)
}

func hostKey(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	scheme := strings.ToLower(u.Scheme)
	if p := u.Port(); p != "" && !(scheme == "http" && p == "80") && !(scheme == "https" && p == "443") {
		host += ":" + p
	}
	return host
}

func resolve(base *url.URL, ref string) (*url.URL, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return nil, false
	}
	u := rel
	if base != nil {
		u = base.ResolveReference(rel)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// textOf joins the text nodes under s with single spaces.
func textOf(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return collapse(b.String())
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
