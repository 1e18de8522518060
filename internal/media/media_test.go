package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendcrawl/internal/models"
)

type fakeExtractor struct {
	err     error
	dirs    []string
	block   bool
	written bool
}

func (f *fakeExtractor) ExtractAudio(ctx context.Context, videoURL, dir string) (string, error) {
	f.dirs = append(f.dirs, dir)
	p := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(p, []byte("RIFF"), 0o600); err != nil {
		return "", err
	}
	f.written = true
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return p, nil
}

func (f *fakeExtractor) Metadata(_ context.Context, videoURL string) (Metadata, error) {
	return Metadata{Title: "A talk", Duration: 61, URL: videoURL}, nil
}

type fakeModel struct{ text string }

func (m fakeModel) Transcribe(_ context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", err
	}
	return m.text, nil
}

func countingLoader(n *atomic.Int32, m Model, err error) ModelLoader {
	return func() (Model, error) {
		n.Add(1)
		return m, err
	}
}

func TestDetectPlatform(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=abc": models.PlatformYouTube,
		"https://youtu.be/abc":                models.PlatformYouTube,
		"https://vimeo.com/123":               models.PlatformVimeo,
		"https://cdn.example.com/clip.MP4":    models.PlatformHTML5,
	}
	for in, want := range cases {
		got, err := DetectPlatform(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"https://example.com/page", "ftp://youtube.com/x", "::"} {
		_, err := DetectPlatform(bad)
		assert.ErrorIs(t, err, ErrUnsupportedPlatform, bad)
	}
}

func TestTranscribeSuccessRemovesScratch(t *testing.T) {
	ex := &fakeExtractor{}
	var loads atomic.Int32
	svc := NewService(ex, countingLoader(&loads, fakeModel{text: "  hello   world "}, nil), Config{TempDir: t.TempDir()})

	text, ok := svc.Transcribe(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.True(t, ok)
	assert.Equal(t, "hello   world", text)

	require.Len(t, ex.dirs, 1)
	_, err := os.Stat(ex.dirs[0])
	assert.True(t, os.IsNotExist(err))
}

func TestTranscribeExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("yt-dlp: exit status 1")}
	var loads atomic.Int32
	svc := NewService(ex, countingLoader(&loads, fakeModel{text: "x"}, nil), Config{TempDir: t.TempDir()})

	text, ok := svc.Transcribe(context.Background(), "https://vimeo.com/1")
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.True(t, ex.written)
	_, err := os.Stat(ex.dirs[0])
	assert.True(t, os.IsNotExist(err), "scratch dir must be removed on failure")
	assert.Zero(t, loads.Load(), "model should not load when extraction fails")
}

func TestTranscribeUnsupportedPlatform(t *testing.T) {
	ex := &fakeExtractor{}
	svc := NewService(ex, nil, Config{})

	_, err := svc.TranscribeErr(context.Background(), "https://example.com/article")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Empty(t, ex.dirs)
}

func TestModelLoadedOnce(t *testing.T) {
	var loads atomic.Int32
	svc := NewService(&fakeExtractor{}, countingLoader(&loads, fakeModel{text: "ok"}, nil), Config{TempDir: t.TempDir()})

	for i := 0; i < 3; i++ {
		_, ok := svc.Transcribe(context.Background(), "https://youtu.be/x"+strconv.Itoa(i))
		require.True(t, ok)
	}
	assert.Equal(t, int32(1), loads.Load())
}

func TestModelLoadFailureIsRetried(t *testing.T) {
	var loads atomic.Int32
	svc := NewService(&fakeExtractor{}, countingLoader(&loads, nil, errors.New("no model")), Config{TempDir: t.TempDir()})

	_, err := svc.TranscribeErr(context.Background(), "https://youtu.be/a")
	assert.ErrorIs(t, err, ErrModelUnavailable)
	_, err = svc.TranscribeErr(context.Background(), "https://youtu.be/a")
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, int32(2), loads.Load())
}

func TestTranscribeExtractionTimeout(t *testing.T) {
	var loads atomic.Int32
	ex := &fakeExtractor{block: true}
	svc := NewService(ex, countingLoader(&loads, fakeModel{text: "x"}, nil), Config{
		TempDir:        t.TempDir(),
		ExtractTimeout: 20 * time.Millisecond,
	})

	start := time.Now()
	_, err := svc.TranscribeErr(context.Background(), "https://youtu.be/slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	_, statErr := os.Stat(ex.dirs[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestEmptyTranscriptIsFailure(t *testing.T) {
	var loads atomic.Int32
	svc := NewService(&fakeExtractor{}, countingLoader(&loads, fakeModel{text: "   "}, nil), Config{TempDir: t.TempDir()})

	_, ok := svc.Transcribe(context.Background(), "https://youtu.be/quiet")
	assert.False(t, ok)
}

func TestMetadata(t *testing.T) {
	svc := NewService(&fakeExtractor{}, nil, Config{})

	md, err := svc.Metadata(context.Background(), "https://vimeo.com/9")
	require.NoError(t, err)
	assert.Equal(t, "A talk", md.Title)
	assert.Equal(t, "https://vimeo.com/9", md.URL)

	_, err = svc.Metadata(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func numberedWords(n int, periodAt ...int) string {
	mark := map[int]bool{}
	for _, i := range periodAt {
		mark[i] = true
	}
	words := make([]string, n)
	for i := range words {
		words[i] = "w" + strconv.Itoa(i)
		if mark[i] {
			words[i] += "."
		}
	}
	return strings.Join(words, " ")
}

func TestSelectBestSegmentEndsOnSentence(t *testing.T) {
	seg := SelectBestSegment(numberedWords(400, 190), 100)

	words := strings.Fields(seg)
	assert.Equal(t, "w100", words[0])
	assert.LessOrEqual(t, len(words), 100)
	assert.Equal(t, "w190.", words[len(words)-1])
}

func TestSelectBestSegmentWithoutLateBoundary(t *testing.T) {
	seg := SelectBestSegment(numberedWords(400, 110), 100)

	words := strings.Fields(seg)
	require.Len(t, words, 100)
	assert.Equal(t, "w100", words[0])
	assert.Equal(t, "w199", words[99])
}

func TestSelectBestSegmentShortAndEmpty(t *testing.T) {
	short := "just a few words."
	assert.Equal(t, short, SelectBestSegment(short, 100))
	assert.Equal(t, "", SelectBestSegment("   ", 100))
	assert.Equal(t, "", SelectBestSegment(short, 0))
	assert.Equal(t, "", SelectBestSegment(short, -5))
}

func TestSelectBestSegmentDeterministic(t *testing.T) {
	in := numberedWords(333, 120, 150, 170)
	first := SelectBestSegment(in, 80)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, SelectBestSegment(in, 80))
	}
	assert.Equal(t, first, SelectBestSegment(first, len(strings.Fields(first))))
}
