package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ErrModelUnavailable means the speech model could not be loaded.
var ErrModelUnavailable = errors.New("speech model unavailable")

// Model turns a 16 kHz mono wav file into text. Implementations must be
// safe for concurrent use once loaded.
type Model interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ModelLoader builds a Model. It is called at most once per successful load.
type ModelLoader func() (Model, error)

// lazyModel loads the model on first use and keeps it for the life of the
// owning Service. A failed load is retried on the next call.
type lazyModel struct {
	mu    sync.Mutex
	load  ModelLoader
	model Model
}

func (l *lazyModel) get() (Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model != nil {
		return l.model, nil
	}
	if l.load == nil {
		return nil, ErrModelUnavailable
	}
	m, err := l.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	l.model = m
	return m, nil
}

// WhisperCLI runs whisper.cpp's command line binary against a ggml model file.
type WhisperCLI struct {
	Binary    string
	ModelPath string
	Language  string
}

// WhisperLoader checks that the binary and model file exist. The returned
// loader is cheap; the model file is only read by whisper.cpp per call.
func WhisperLoader(binary, modelPath, language string) ModelLoader {
	return func() (Model, error) {
		bin, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("whisper binary %q: %w", binary, err)
		}
		if _, err := os.Stat(modelPath); err != nil {
			return nil, fmt.Errorf("whisper model: %w", err)
		}
		if language == "" {
			language = "auto"
		}
		return &WhisperCLI{Binary: bin, ModelPath: modelPath, Language: language}, nil
	}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	cmd := exec.CommandContext(ctx, w.Binary,
		"-m", w.ModelPath,
		"-f", audioPath,
		"-l", w.Language,
		"-nt", "-np",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("whisper: %w", ctx.Err())
		}
		return "", fmt.Errorf("whisper: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.Join(strings.Fields(stdout.String()), " "), nil
}
