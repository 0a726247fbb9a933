package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snaptext/pkg/config"
)

const (
	defaultBaseURL        = "https://api.ocr.space/parse/image"
	defaultRequestTimeout = 30 * time.Second
)

// Kind classifies the result of one recognition attempt.
type Kind string

const (
	KindText           Kind = "text"
	KindNoText         Kind = "no_text"
	KindProviderError  Kind = "provider_error"
	KindTransportError Kind = "transport_error"
)

// Outcome is the classified result of one provider call. Exactly one of the
// payload fields is meaningful for a given Kind: Text for KindText, Status
// and Detail for KindProviderError, Detail for KindTransportError.
type Outcome struct {
	Kind   Kind
	Text   string
	Status int
	Detail string
}

// Client submits images to the OCR provider. One attempt per call, bounded
// by the configured request timeout; retries are up to the caller and the
// pipeline deliberately performs none.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
}

// New validates OCR configuration and constructs a provider client.
func New(cfg config.OCRConfig) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("ocr.api_key is required or OCR_API_KEY must be set")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		language:   strings.TrimSpace(cfg.Language),
	}, nil
}

type parseResponse struct {
	ParsedResults []parsedResult `json:"ParsedResults"`
}

type parsedResult struct {
	ParsedText string `json:"ParsedText"`
}

// Recognize submits the image at path as a multipart payload and classifies
// the provider response:
//
//	200 with a non-blank first ParsedText  -> KindText (trimmed)
//	200 with no results or blank text      -> KindNoText
//	any other status                       -> KindProviderError (status, body)
//	network/body/parse failure             -> KindTransportError
func (c *Client) Recognize(ctx context.Context, path string) Outcome {
	log := clientLogger().With("operation", "recognize")
	startedAt := time.Now()

	image, err := os.Open(path)
	if err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("open image: %w", err))
	}
	defer image.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("build form: %w", err))
	}
	if _, err := io.Copy(part, image); err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("copy image into form: %w", err))
	}
	if c.language != "" {
		if err := form.WriteField("language", c.language); err != nil {
			return transportOutcome(log, startedAt, fmt.Errorf("build form: %w", err))
		}
	}
	if err := form.Close(); err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("finalize form: %w", err))
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("build request: %w", err))
	}
	request.Header.Set("apikey", c.apiKey)
	request.Header.Set("Content-Type", form.FormDataContentType())

	log.Debug("provider request started", "image_bytes", body.Len())

	response, err := c.httpClient.Do(request)
	if err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("call provider: %w", err))
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("read provider response: %w", err))
	}

	if response.StatusCode != http.StatusOK {
		log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "status", response.StatusCode)
		return Outcome{Kind: KindProviderError, Status: response.StatusCode, Detail: string(responseBody)}
	}

	var parsed parseResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return transportOutcome(log, startedAt, fmt.Errorf("parse provider response: %w", err))
	}

	if len(parsed.ParsedResults) == 0 {
		log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "result", "no_results")
		return Outcome{Kind: KindNoText}
	}

	text := strings.TrimSpace(parsed.ParsedResults[0].ParsedText)
	if text == "" {
		log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "result", "blank_text")
		return Outcome{Kind: KindNoText}
	}

	log.Debug("provider request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "text_length", len(text))
	return Outcome{Kind: KindText, Text: text}
}

func transportOutcome(log *slog.Logger, startedAt time.Time, err error) Outcome {
	log.Debug("provider request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
	return Outcome{Kind: KindTransportError, Detail: err.Error()}
}

func clientLogger() *slog.Logger {
	return slog.Default().With("component", "ocr.client")
}
