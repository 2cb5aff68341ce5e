package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pixgenie/pkg/httputil"
)

const (
	baseURL        = "https://api.unsplash.com"
	defaultPerPage = 10
	apiVersion     = "v1"
	serviceName    = "unsplash"
)

type Client struct {
	accessKey  string
	perPage    int
	httpClient *http.Client
	baseURL    string
}

type Config struct {
	AccessKey string
	BaseURL   string
	PerPage   int
	Timeout   time.Duration
}

type Photo struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	URLs           URLs   `json:"urls"`
	Links          Links  `json:"links"`
	User           User   `json:"user"`
}

type URLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

type Links struct {
	HTML             string `json:"html"`
	Download         string `json:"download"`
	DownloadLocation string `json:"download_location"`
}

type User struct {
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Links    UserLinks `json:"links"`
}

type UserLinks struct {
	HTML string `json:"html"`
}

type searchResponse struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = baseURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return &Client{
		accessKey: cfg.AccessKey,
		perPage:   perPage,
		baseURL:   base,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Search returns the candidate photos for query in the order Unsplash ranks them.
func (c *Client) Search(ctx context.Context, query string) ([]Photo, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(c.perPage))

	reqURL := fmt.Sprintf("%s/search/photos?%s", c.baseURL, params.Encode())

	req, err := c.newRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	resp, err := httputil.Do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("search photos: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httputil.CheckResponse(serviceName, resp); err != nil {
		return nil, err
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return searchResp.Results, nil
}

// TrackDownload registers a download with Unsplash. The API guidelines
// require this call whenever a photo is downloaded; the response is ignored.
func (c *Client) TrackDownload(ctx context.Context, photo Photo) error {
	if photo.Links.DownloadLocation == "" {
		return fmt.Errorf("photo %q has no download location", photo.ID)
	}

	req, err := c.newRequest(ctx, photo.Links.DownloadLocation)
	if err != nil {
		return err
	}

	resp, err := httputil.Do(c.httpClient, req)
	if err != nil {
		return fmt.Errorf("track download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httputil.CheckResponse(serviceName, resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DownloadImage fetches the full-resolution bytes of photo.
func (c *Client) DownloadImage(ctx context.Context, photo Photo) ([]byte, error) {
	if photo.URLs.Full == "" {
		return nil, fmt.Errorf("photo %q has no full url", photo.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photo.URLs.Full, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := httputil.Do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httputil.CheckResponse(serviceName, resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}

	return data, nil
}

func (c *Client) newRequest(ctx context.Context, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", apiVersion)
	return req, nil
}
