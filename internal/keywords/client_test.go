package keywords

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"pixgenie/pkg/httputil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "doubleEncoded",
			raw:  `"{\"keywords\": [\"golang\", \"concurrency\", \"channels\"]}"`,
			want: []string{"golang", "concurrency", "channels"},
		},
		{
			name: "objectValue",
			raw:  `{"keywords": ["coffee", "brewing"]}`,
			want: []string{"coffee", "brewing"},
		},
		{
			name: "bareArray",
			raw:  `["travel", "japan"]`,
			want: []string{"travel", "japan"},
		},
		{
			name: "fallbackKey",
			raw:  `"{\"tags\": [\"hiking\"]}"`,
			want: []string{"hiking"},
		},
		{
			name: "unknownKey",
			raw:  `{"top_keywords": ["ocean"]}`,
			want: []string{"ocean"},
		},
		{
			name: "trimsAndDropsBlanks",
			raw:  `["  bread ", "", "yeast"]`,
			want: []string{"bread", "yeast"},
		},
		{
			name: "emptyArray",
			raw:  `"{\"keywords\": []}"`,
			want: []string{},
		},
		{
			name: "emptyBareArray",
			raw:  `[]`,
			want: []string{},
		},
		{
			name:    "missingKeywordsKey",
			raw:     `"{\"summary\": \"text\"}"`,
			wantErr: true,
		},
		{
			name:    "nullKeywords",
			raw:     `"{\"keywords\": null}"`,
			wantErr: true,
		},
		{
			name:    "notJSON",
			raw:     `"this is not json"`,
			wantErr: true,
		},
		{
			name:    "missing",
			raw:     ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeRoundTripsThroughParse(t *testing.T) {
	resp, err := Encode([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var encoded string
	if err := json.Unmarshal(resp.Keywords, &encoded); err != nil {
		t.Fatalf("Keywords should be a JSON string: %v", err)
	}

	got, err := Parse(resp.Keywords)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Parse(Encode()) = %v", got)
	}
}

func TestExtract(t *testing.T) {
	var gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotContent = req.Content
		_, _ = w.Write([]byte(`{"keywords": "{\"keywords\": [\"sourdough\", \"baking\"]}"}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	got, err := client.Extract(context.Background(), "How I bake sourdough")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if gotContent != "How I bake sourdough" {
		t.Errorf("sent content = %q", gotContent)
	}
	if !reflect.DeepEqual(got, []string{"sourdough", "baking"}) {
		t.Errorf("Extract() = %v", got)
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind httputil.Kind
	}{
		{
			name: "serverError",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"detail": "LLM API error"}`))
			},
			wantKind: httputil.KindServer,
		},
		{
			name: "malformedBody",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			wantKind: httputil.KindClient,
		},
		{
			name: "malformedInnerJSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"keywords": "oops"}`))
			},
			wantKind: httputil.KindClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(Config{Endpoint: server.URL})
			_, err := client.Extract(context.Background(), "content")
			if err == nil {
				t.Fatal("Extract() should fail")
			}
			if kind := httputil.Classify(err); kind != tt.wantKind {
				t.Errorf("Classify() = %v, want %v (err=%v)", kind, tt.wantKind, err)
			}
		})
	}
}

func TestExtractInvalidEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "unparseable", endpoint: "://bad"},
		{name: "ftpScheme", endpoint: "ftp://example.com/api"},
		{name: "missingScheme", endpoint: "localhost:8000/api/generate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(Config{Endpoint: tt.endpoint})
			_, err := client.Extract(context.Background(), "content")
			if err == nil {
				t.Fatal("Extract() should fail for a malformed endpoint")
			}
			if kind := httputil.Classify(err); kind != httputil.KindClient {
				t.Errorf("Classify() = %v, want client (err=%v)", kind, err)
			}
		})
	}
}

func TestExtractNoResponse(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client := NewClient(Config{Endpoint: endpoint})
	_, err := client.Extract(context.Background(), "content")
	if !errors.As(err, new(*httputil.TransportError)) {
		t.Fatalf("Extract() error = %v, want *TransportError", err)
	}
	if kind := httputil.Classify(err); kind != httputil.KindNetwork {
		t.Errorf("Classify() = %v, want network", kind)
	}
}
