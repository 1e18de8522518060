package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoAudio means the extractor finished without producing an audio file.
var ErrNoAudio = errors.New("no audio track extracted")

// Metadata is what yt-dlp reports about a video without downloading it.
type Metadata struct {
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	ViewCount   int64   `json:"view_count"`
	UploadDate  string  `json:"upload_date"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
	URL         string  `json:"webpage_url"`
}

// Extractor pulls audio (and metadata) out of a hosted video.
type Extractor interface {
	ExtractAudio(ctx context.Context, videoURL, dir string) (string, error)
	Metadata(ctx context.Context, videoURL string) (Metadata, error)
}

// YTDLP shells out to yt-dlp. Audio is converted to 16 kHz mono wav,
// which is what whisper.cpp expects.
type YTDLP struct {
	Binary string
}

func NewYTDLP(binary string) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{Binary: binary}
}

func (y *YTDLP) ExtractAudio(ctx context.Context, videoURL, dir string) (string, error) {
	out := filepath.Join(dir, "audio.%(ext)s")
	args := []string{
		"--quiet", "--no-warnings", "--no-playlist",
		"-f", "bestaudio/best",
		"-x", "--audio-format", "wav",
		"--postprocessor-args", "ffmpeg:-ar 16000 -ac 1",
		"-o", out,
		videoURL,
	}
	if _, err := y.run(ctx, args...); err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "audio.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoAudio
	}
	// prefer the converted wav over any leftover intermediate
	sort.SliceStable(matches, func(i, j int) bool {
		return strings.HasSuffix(matches[i], ".wav") && !strings.HasSuffix(matches[j], ".wav")
	})
	return matches[0], nil
}

func (y *YTDLP) Metadata(ctx context.Context, videoURL string) (Metadata, error) {
	out, err := y.run(ctx, "--quiet", "--no-warnings", "--no-playlist", "--skip-download", "--dump-json", videoURL)
	if err != nil {
		return Metadata{}, err
	}
	var md Metadata
	if err := json.Unmarshal(out, &md); err != nil {
		return Metadata{}, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	if md.URL == "" {
		md.URL = videoURL
	}
	return md, nil
}

func (y *YTDLP) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, y.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp: %w", ctx.Err())
		}
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
