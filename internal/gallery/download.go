package gallery

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"pixgenie/internal/unsplash"
)

const maxFileNameLength = 100

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

type PhotoFetcher interface {
	TrackDownload(ctx context.Context, photo unsplash.Photo) error
	DownloadImage(ctx context.Context, photo unsplash.Photo) ([]byte, error)
}

// Downloader registers a download with Unsplash before pulling the bytes.
type Downloader struct {
	fetcher PhotoFetcher
}

func NewDownloader(fetcher PhotoFetcher) *Downloader {
	return &Downloader{fetcher: fetcher}
}

func (d *Downloader) Fetch(ctx context.Context, photo unsplash.Photo) ([]byte, error) {
	if err := d.fetcher.TrackDownload(ctx, photo); err != nil {
		return nil, fmt.Errorf("track download: %w", err)
	}

	data, err := d.fetcher.DownloadImage(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return data, nil
}

// FileName is the local name for photo: its slug with a .jpg extension.
func FileName(photo unsplash.Photo) string {
	name := sanitizeForPath(photo.Slug)
	if name == "" {
		name = sanitizeForPath(photo.ID)
	}
	if name == "" {
		name = "image"
	}
	if len(name) > maxFileNameLength {
		name = name[:maxFileNameLength]
	}
	return name + ".jpg"
}

func sanitizeForPath(s string) string {
	s = sanitizeRegex.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
