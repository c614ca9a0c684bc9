package genimage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	t.Setenv(EnvAPIKey, "sk-test")
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(WithBaseURL(srv.URL), WithModel("dall-e-3"))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c, srv
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	_, err := NewClient()
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("error code = %v, want UNAUTHORIZED", errors.GetCode(err))
	}
	if errors.IsTransient(err) {
		t.Error("missing API key must be permanent")
	}
}

func TestGenerateSuccess(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "dall-e-3" || req.Size != "1792x1024" || req.N != 1 {
			t.Errorf("request = %+v", req)
		}
		if req.ResponseFormat != "url" {
			t.Errorf("response_format = %q", req.ResponseFormat)
		}

		fmt.Fprintf(w, `{"data":[{"url":%q}]}`, srv.URL+"/image.png")
	})
	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake png bytes"))
	})

	c, s := newTestClient(t, mux)
	srv = s

	data, err := c.Generate(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if string(data) != "fake png bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestGenerateStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
		{"forbidden", http.StatusForbidden, false},
		{"unprocessable", http.StatusUnprocessableEntity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"message":"nope","type":"test"}}`)
			}))

			_, err := c.Generate(context.Background(), testSpec())
			if err == nil {
				t.Fatal("Generate should fail")
			}
			if got := errors.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v: %v", got, tt.transient, err)
			}
		})
	}
}

func TestGenerateRetryAfterHeader(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Generate(context.Background(), testSpec())
	var rl *errors.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want RateLimitedError", err)
	}
	if rl.RetryAfter != 17 {
		t.Errorf("RetryAfter = %d, want 17", rl.RetryAfter)
	}
}

func TestGenerateNetworkError(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-test")
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	c, err := NewClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	_, err = c.Generate(context.Background(), testSpec())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error code = %v, want NETWORK", errors.GetCode(err))
	}
	if !errors.IsTransient(err) {
		t.Error("network errors must be transient")
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))

	_, err := c.Generate(context.Background(), testSpec())
	if !errors.Is(err, errors.ErrCodeGenerationPermanent) {
		t.Errorf("error code = %v, want GENERATION_PERMANENT", errors.GetCode(err))
	}
}
