package ocr

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"snaptext/pkg/config"
)

func writeImage(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(path, []byte("not-really-a-jpeg"), 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	return path
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(config.OCRConfig{BaseURL: baseURL, APIKey: "test-key", Language: "eng"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	return client
}

func TestRecognizeResponseMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantText   string
		wantStatus int
		wantDetail string
	}{
		{
			name:     "text with surrounding whitespace is trimmed",
			status:   http.StatusOK,
			body:     `{"ParsedResults":[{"ParsedText":" Hello World \n"}]}`,
			wantKind: KindText,
			wantText: "Hello World",
		},
		{
			name:     "empty results list",
			status:   http.StatusOK,
			body:     `{"ParsedResults":[]}`,
			wantKind: KindNoText,
		},
		{
			name:     "absent results list",
			status:   http.StatusOK,
			body:     `{}`,
			wantKind: KindNoText,
		},
		{
			name:     "blank first text",
			status:   http.StatusOK,
			body:     `{"ParsedResults":[{"ParsedText":"  \n\t"}]}`,
			wantKind: KindNoText,
		},
		{
			name:       "provider failure carries status and body",
			status:     http.StatusInternalServerError,
			body:       "internal error",
			wantKind:   KindProviderError,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal error",
		},
		{
			name:     "malformed body is a transport failure",
			status:   http.StatusOK,
			body:     "{not json",
			wantKind: KindTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("apikey"); got != "test-key" {
					t.Errorf("apikey header = %q, want %q", got, "test-key")
				}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("parse multipart form: %v", err)
				} else {
					if _, _, err := r.FormFile("file"); err != nil {
						t.Errorf("missing file field: %v", err)
					}
					if got := r.FormValue("language"); got != "eng" {
						t.Errorf("language field = %q, want %q", got, "eng")
					}
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			outcome := newTestClient(t, server.URL).Recognize(t.Context(), writeImage(t))

			if outcome.Kind != tt.wantKind {
				t.Fatalf("kind = %q, want %q", outcome.Kind, tt.wantKind)
			}
			if outcome.Text != tt.wantText {
				t.Fatalf("text = %q, want %q", outcome.Text, tt.wantText)
			}
			if outcome.Status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", outcome.Status, tt.wantStatus)
			}
			if tt.wantDetail != "" && outcome.Detail != tt.wantDetail {
				t.Fatalf("detail = %q, want %q", outcome.Detail, tt.wantDetail)
			}
		})
	}
}

func TestRecognizeUnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	outcome := newTestClient(t, server.URL).Recognize(t.Context(), writeImage(t))
	if outcome.Kind != KindTransportError {
		t.Fatalf("kind = %q, want %q", outcome.Kind, KindTransportError)
	}
	if outcome.Detail == "" {
		t.Fatal("expected transport error detail")
	}
}

func TestRecognizeMissingImage(t *testing.T) {
	outcome := newTestClient(t, "http://127.0.0.1:1").Recognize(t.Context(), filepath.Join(t.TempDir(), "missing.jpg"))
	if outcome.Kind != KindTransportError {
		t.Fatalf("kind = %q, want %q", outcome.Kind, KindTransportError)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(config.OCRConfig{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestNewDefaults(t *testing.T) {
	client, err := New(config.OCRConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if client.baseURL != defaultBaseURL {
		t.Fatalf("base url = %q, want %q", client.baseURL, defaultBaseURL)
	}
	if client.httpClient.Timeout != defaultRequestTimeout {
		t.Fatalf("timeout = %v, want %v", client.httpClient.Timeout, defaultRequestTimeout)
	}
}
