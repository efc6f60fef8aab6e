package sticker

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// SourceLogoLoader loads a logo from an http(s) URL or a file path and keeps
// the decoded image after the first success.
type SourceLogoLoader struct {
	source string
	client *resty.Client

	mu     sync.Mutex
	cached image.Image
}

func NewSourceLogoLoader(source string, timeout time.Duration) *SourceLogoLoader {
	return &SourceLogoLoader{
		source: source,
		client: resty.New().SetTimeout(timeout).SetRetryCount(1),
	}
}

func (l *SourceLogoLoader) Load(ctx context.Context) (image.Image, error) {
	l.mu.Lock()
	cached := l.cached
	l.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	data, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}

	l.mu.Lock()
	l.cached = img
	l.mu.Unlock()
	return img, nil
}

func (l *SourceLogoLoader) fetch(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		resp, err := l.client.R().SetContext(ctx).Get(l.source)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("logo fetch returned HTTP %d", resp.StatusCode())
		}
		return resp.Body(), nil
	}
	return os.ReadFile(l.source)
}
