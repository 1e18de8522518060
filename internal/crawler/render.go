package crawler

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Renderer produces the post-JavaScript DOM of a page. It is only consulted
// when the plain fetch yields no readable text.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// ChromeRenderer shells out to a headless Chromium/Chrome binary.
type ChromeRenderer struct {
	Binary  string
	Timeout time.Duration
}

func (c ChromeRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bin := c.Binary
	if bin == "" {
		bin = "chromium"
	}
	cmd := exec.CommandContext(ctx, bin,
		"--headless", "--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage",
		"--window-size=1920,1080", "--dump-dom", rawURL)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("headless render %s: %w", rawURL, err)
	}
	return string(out), nil
}
