package genimage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/schema"
)

const (
	// DefaultBaseURL is the OpenAI API root. Override it to point at a proxy
	// or a local stub.
	DefaultBaseURL = "https://api.openai.com"

	// DefaultModel is requested when the schema does not name one.
	DefaultModel = "dall-e-3"

	httpTimeout = 120 * time.Second

	// maxImageBytes caps downloads so a misbehaving endpoint cannot exhaust
	// memory.
	maxImageBytes = 64 << 20
)

// EnvAPIKey is the environment variable the API key is read from.
const EnvAPIKey = "OPENAI_API_KEY"

// Client generates images through the OpenAI images endpoint. A client
// performs exactly one attempt per call; wrap it in a [Retryer] for the
// retry policy.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithModel selects the image model requested from the service.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client reading the API key from the environment. A
// missing key is a permanent configuration failure: no amount of retrying
// will produce one.
func NewClient(opts ...Option) (*Client, error) {
	key := os.Getenv(EnvAPIKey)
	if key == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "%s is not set", EnvAPIKey)
	}

	c := &Client{
		http:    &http.Client{Timeout: httpTimeout},
		baseURL: DefaultBaseURL,
		apiKey:  key,
		model:   DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type generateRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type generateResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate performs one generation request and downloads the resulting
// image. Failures carry a code distinguishing transient conditions (network
// errors, rate limits, 5xx) from permanent ones (bad request, auth).
func (c *Client) Generate(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
	body, err := json.Marshal(generateRequest{
		Model:          c.model,
		Prompt:         spec.Prompt,
		N:              1,
		Size:           spec.GenerationSize,
		ResponseFormat: "url",
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal generation request")
	}

	url := c.baseURL + "/v1/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build generation request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "generation request for %s", spec.Filename)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, spec.Filename); err != nil {
		return nil, err
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGenerationTransient, err, "decode generation response for %s", spec.Filename)
	}
	if len(gen.Data) == 0 || gen.Data[0].URL == "" {
		return nil, errors.New(errors.ErrCodeGenerationPermanent, "generation response for %s carried no image URL", spec.Filename)
	}

	return c.download(ctx, gen.Data[0].URL, spec.Filename)
}

// download fetches the generated image from the URL the API returned.
func (c *Client) download(ctx context.Context, url, filename string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build download request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "download %s", filename)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeGenerationTransient, "download %s: status %d", filename, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read image body for %s", filename)
	}
	if len(data) > maxImageBytes {
		return nil, errors.New(errors.ErrCodeGenerationPermanent, "image for %s exceeds %d bytes", filename, maxImageBytes)
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeGenerationTransient, "empty image body for %s", filename)
	}
	return data, nil
}

// classifyStatus maps an API status code to a transient or permanent error.
// The body is drained for its error message where one is present.
func classifyStatus(resp *http.Response, filename string) error {
	code := resp.StatusCode
	if code == http.StatusOK {
		return nil
	}

	msg := apiErrorMessage(resp)

	switch {
	case code == http.StatusTooManyRequests:
		return &errors.RateLimitedError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    fmt.Sprintf("rate limited generating %s: %s", filename, msg),
		}
	case code >= 500:
		return errors.New(errors.ErrCodeGenerationTransient, "generating %s: status %d: %s", filename, code, msg)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "generating %s: status %d: %s", filename, code, msg)
	default:
		// 400, 422 and everything else client-side: the request itself is
		// rejected and will be rejected again.
		return errors.New(errors.ErrCodeGenerationPermanent, "generating %s: status %d: %s", filename, code, msg)
	}
}

func apiErrorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var gen generateResponse
	if json.Unmarshal(data, &gen) == nil && gen.Error != nil && gen.Error.Message != "" {
		return gen.Error.Message
	}
	return strings.TrimSpace(string(data))
}

func parseRetryAfter(header string) int {
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return secs
	}
	return 0
}
