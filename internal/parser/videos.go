package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"trendcrawl/internal/models"
)

var (
	youtubeEmbedRe = regexp.MustCompile(`(?i)^(?:www\.)?youtube(?:-nocookie)?\.com$`)
	vimeoPlayerRe  = regexp.MustCompile(`(?i)^player\.vimeo\.com$`)
	videoIDRe      = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// CanonicalVideo maps a known embed URL to its canonical watch URL.
// ok is false when the URL is not a recognised video embed.
func CanonicalVideo(u *url.URL) (platform, watch string, ok bool) {
	host := u.Hostname()
	switch {
	case youtubeEmbedRe.MatchString(host):
		if id, found := strings.CutPrefix(u.Path, "/embed/"); found {
			id = strings.Trim(id, "/")
			if videoIDRe.MatchString(id) {
				return models.PlatformYouTube, "https://www.youtube.com/watch?v=" + id, true
			}
		}
	case vimeoPlayerRe.MatchString(host):
		if id, found := strings.CutPrefix(u.Path, "/video/"); found {
			id = strings.Trim(id, "/")
			if videoIDRe.MatchString(id) {
				return models.PlatformVimeo, "https://vimeo.com/" + id, true
			}
		}
	}
	return "", "", false
}

func extractVideos(doc *goquery.Document, pageURL *url.URL) []models.VideoRef {
	var videos []models.VideoRef
	seen := map[string]bool{}
	add := func(v models.VideoRef) {
		if seen[v.URL] {
			return
		}
		seen[v.URL] = true
		videos = append(videos, v)
	}

	doc.Find("iframe[src]").Each(func(i int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		u, ok := resolve(pageURL, src)
		if !ok {
			return
		}
		platform, watch, ok := CanonicalVideo(u)
		if !ok {
			return
		}
		add(models.VideoRef{
			Platform: platform,
			URL:      watch,
			EmbedURL: u.String(),
			Title:    s.AttrOr("title", platform+" video"),
		})
	})

	doc.Find("video").Each(func(i int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" {
			src = s.Find("source[src]").First().AttrOr("src", "")
		}
		u, ok := resolve(pageURL, src)
		if !ok {
			return
		}
		add(models.VideoRef{
			Platform: models.PlatformHTML5,
			URL:      u.String(),
			Title:    s.AttrOr("title", "HTML5 video"),
		})
	})
	return videos
}
