// Package media downloads referenced WhatsApp media and re-uploads it to
// durable object storage under collision-resistant filenames.
package media

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"genmarket/internal/model"
	"genmarket/internal/storage"
	"genmarket/internal/webhook"
	"genmarket/prometheus"

	"go.uber.org/zap"
)

const downloadTimeout = 30 * time.Second

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Downloader fetches media bytes from a source URL
type Downloader interface {
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// HTTPDownloader downloads media over HTTP with a bounded timeout
type HTTPDownloader struct {
	client *http.Client
}

func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{
			Timeout: downloadTimeout,
		},
	}
}

func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download media, status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// Resolver turns message media references into stored listing images
type Resolver struct {
	downloader Downloader
	uploader   storage.Uploader
	log        *zap.Logger
}

func NewResolver(downloader Downloader, uploader storage.Uploader, log *zap.Logger) *Resolver {
	return &Resolver{
		downloader: downloader,
		uploader:   uploader,
		log:        log,
	}
}

// Resolve downloads and re-uploads each media item. Per-item failures are
// logged and that item is skipped: the call never fails as a whole, and
// returns whatever subset succeeded, in the original order.
func (r *Resolver) Resolve(ctx context.Context, items []webhook.Media) []model.GeneratorImage {
	var images []model.GeneratorImage

	for _, item := range items {
		if item.URL == "" {
			continue
		}

		data, contentType, err := r.downloader.Download(ctx, item.URL)
		if err != nil {
			prometheus.MediaItemsCounter.WithLabelValues("skipped").Inc()
			r.log.Warn("Media download failed, skipping item",
				zap.String("url", item.URL),
				zap.Error(err))
			continue
		}

		mimeType := item.MimeType
		if mimeType == "" {
			mimeType = contentType
		}

		filename := newFilename(mimeType)
		result := r.uploader.Upload(ctx, data, filename, mimeType)

		prometheus.MediaItemsCounter.WithLabelValues("resolved").Inc()
		images = append(images, model.GeneratorImage{
			URL:      result.URL,
			Filename: filename,
			Size:     int64(len(data)),
			MimeType: mimeType,
			Position: len(images),
		})
	}

	return images
}

// newFilename builds a collision-resistant object name:
// timestamp + random suffix + extension inferred from the MIME type.
func newFilename(mimeType string) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}

	ext := "jpg"
	if parts := strings.SplitN(mimeType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}

	return fmt.Sprintf("%d_%s.%s", time.Now().UnixMilli(), suffix, ext)
}
