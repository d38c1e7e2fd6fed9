// Package caption provides CaptionService implementations: an HTTP client for
// a remote captioning endpoint, an LRU cache decorator and an offline
// template generator used when no endpoint is configured.
package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// maxResponseBytes bounds how much of a caption response is read.
const maxResponseBytes = 64 << 10

type describeRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type describeResponse struct {
	Caption string `json:"caption"`
	Error   string `json:"error,omitempty"`
}

// HTTPService asks a remote endpoint for captions.
// The endpoint receives {"title","artist"} and answers {"caption"}.
type HTTPService struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPService creates a client for endpoint. apiKey, when set, is sent as a
// bearer token. A non-positive timeout defaults to 10 seconds.
func NewHTTPService(endpoint, apiKey string, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPService{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Describe implements ports.CaptionService.
func (s *HTTPService) Describe(ctx context.Context, title, artist string) (string, error) {
	body, err := json.Marshal(describeRequest{Title: title, Artist: artist})
	if err != nil {
		return "", domain.NewCaptionError(title, artist, 0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewCaptionError(title, artist, 0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.NewCaptionError(title, artist, 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.NewCaptionError(title, artist, resp.StatusCode, "read response", err)
	}

	var out describeResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return "", domain.NewCaptionError(title, artist, resp.StatusCode, msg, domain.ErrCaptionUnavailable)
	}
	if decodeErr != nil {
		return "", domain.NewCaptionError(title, artist, resp.StatusCode, "decode response", decodeErr)
	}

	text := strings.TrimSpace(out.Caption)
	if text == "" {
		return "", domain.NewCaptionError(title, artist, resp.StatusCode, "empty caption", domain.ErrCaptionUnavailable)
	}
	return text, nil
}

// IsTimeout reports whether err came from a lookup that ran out of time.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func (s *HTTPService) String() string {
	return fmt.Sprintf("http(%s)", s.endpoint)
}

var _ ports.CaptionService = (*HTTPService)(nil)
