package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pixgenie/pkg/httputil"
)

const serviceName = "keywords"

// ErrNoKeywords is returned when the endpoint answered but listed nothing.
var ErrNoKeywords = errors.New("no keywords found in response")

var fallbackKeys = []string{"keywords", "tags", "topics", "results"}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

type Request struct {
	Content string `json:"content"`
}

// Response is the wire shape of the extraction endpoint. Keywords holds a JSON
// string that itself encodes {"keywords": [...]}.
type Response struct {
	Keywords json.RawMessage `json:"keywords"`
}

func NewClient(cfg Config) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *Client) Extract(ctx context.Context, content string) ([]string, error) {
	payload, err := json.Marshal(Request{Content: content})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.Do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httputil.CheckResponse(serviceName, resp); err != nil {
		return nil, err
	}

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return Parse(body.Keywords)
}

// Parse accepts the double-encoded string the endpoint returns, and also a
// bare array or an object holding one.
func Parse(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrNoKeywords
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}

	list, err := parseJSONArray(raw, fallbackKeys)
	if err != nil {
		return nil, err
	}

	return cleanKeywords(list), nil
}

// parseJSONArray finds the keyword list in content. A present but empty list
// is a valid answer; ErrNoKeywords means no list was found at all.
func parseJSONArray(content json.RawMessage, keys []string) ([]string, error) {
	var direct []string
	if err := json.Unmarshal(content, &direct); err == nil && direct != nil {
		return direct, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(content, &wrapped); err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}

	for _, key := range keys {
		if items, ok := decodeStrings(wrapped[key]); ok {
			return items, nil
		}
	}

	for _, value := range wrapped {
		if items, ok := decodeStrings(value); ok && len(items) > 0 {
			return items, nil
		}
	}

	return nil, ErrNoKeywords
}

func decodeStrings(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

func cleanKeywords(list []string) []string {
	result := make([]string, 0, len(list))
	for _, keyword := range list {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		result = append(result, keyword)
	}
	return result
}

// Encode builds the endpoint's response payload for keywords.
func Encode(list []string) (Response, error) {
	inner, err := json.Marshal(map[string][]string{"keywords": list})
	if err != nil {
		return Response{}, fmt.Errorf("encode keywords: %w", err)
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		return Response{}, fmt.Errorf("encode keywords: %w", err)
	}
	return Response{Keywords: outer}, nil
}
