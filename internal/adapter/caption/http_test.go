package caption

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/testutil"
)

func TestHTTPService_Describe(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...)

	var got describeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(describeResponse{Caption: "  Neon nostalgia.  "})
	}))
	defer srv.Close()

	svc := NewHTTPService(srv.URL+"/", "secret", time.Second)
	text, err := svc.Describe(context.Background(), "Midnight City", "M83")
	require.NoError(t, err)

	assert.Equal(t, "Neon nostalgia.", text)
	assert.Equal(t, describeRequest{Title: "Midnight City", Artist: "M83"}, got)
}

func TestHTTPService_StatusError(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(describeResponse{Error: "quota exceeded"})
	}))
	defer srv.Close()

	_, err := NewHTTPService(srv.URL, "", time.Second).Describe(context.Background(), "Stay", "The Kid LAROI")
	require.Error(t, err)

	var capErr *domain.CaptionError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, http.StatusTooManyRequests, capErr.Status)
	assert.Equal(t, "quota exceeded", capErr.Message)
	assert.Equal(t, "Stay", capErr.Title)
	assert.ErrorIs(t, err, domain.ErrCaptionUnavailable)
}

func TestHTTPService_EmptyAndMalformed(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...)

	body := `{"caption":""}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	svc := NewHTTPService(srv.URL, "", time.Second)

	_, err := svc.Describe(context.Background(), "a", "b")
	assert.ErrorIs(t, err, domain.ErrCaptionUnavailable)

	body = `not json`
	_, err = svc.Describe(context.Background(), "a", "b")
	var capErr *domain.CaptionError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "decode response", capErr.Message)
}

func TestHTTPService_ContextCancel(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPService(srv.URL, "", 5*time.Second).Describe(ctx, "a", "b")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}
