package media

import (
	"errors"
	"net/url"
	"path"
	"strings"

	"trendcrawl/internal/models"
)

// ErrUnsupportedPlatform is returned for URLs no extractor can handle.
var ErrUnsupportedPlatform = errors.New("unsupported video platform")

var directMedia = map[string]bool{
	".mp4": true, ".webm": true, ".ogg": true, ".ogv": true, ".mov": true,
	".m4v": true, ".mp3": true, ".m4a": true, ".wav": true,
}

// DetectPlatform resolves the hosting platform of a video URL.
func DetectPlatform(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrUnsupportedPlatform
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	switch {
	case host == "youtube.com", host == "youtu.be", host == "youtube-nocookie.com":
		return models.PlatformYouTube, nil
	case host == "vimeo.com", host == "player.vimeo.com":
		return models.PlatformVimeo, nil
	case directMedia[strings.ToLower(path.Ext(u.Path))]:
		return models.PlatformHTML5, nil
	}
	return "", ErrUnsupportedPlatform
}
