// Package judge decides whether two LaTeX strings typeset the same formula
// by running both through an external normalizer service.
package judge

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

	"github.com/klauspost/compress/gzhttp"

	"github.com/Neumenon/mathtex/logging"
)

// DefaultTimeout bounds one normalizer call.
const DefaultTimeout = 10 * time.Second

// maxResponse caps the normalizer body we read.
const maxResponse = 4 << 20

// ErrNoEndpoint is returned when the client has no normalizer configured.
var ErrNoEndpoint = errors.New("judge: no endpoint configured")

// Verdict is the outcome of comparing an expected and an actual string.
type Verdict uint8

const (
	Same       Verdict = iota // identical after trimming and CRLF folding
	Equivalent                // identical after normalization
	Different
	Error // the normalizer could not be reached or refused the input
)

var verdictNames = [...]string{
	Same:       "same",
	Equivalent: "equivalent",
	Different:  "different",
	Error:      "error",
}

func (v Verdict) String() string {
	if int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return fmt.Sprintf("verdict(%d)", v)
}

// MarshalText encodes the verdict name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a verdict name.
func (v *Verdict) UnmarshalText(b []byte) error {
	for i, name := range verdictNames {
		if string(b) == name {
			*v = Verdict(i)
			return nil
		}
	}
	return fmt.Errorf("judge: unknown verdict %q", b)
}

// Passed reports whether the verdict counts as a match.
func (v Verdict) Passed() bool {
	return v == Same || v == Equivalent
}

// Result is a verdict with the normalized form of the actual string.
type Result struct {
	Verdict    Verdict `json:"verdict"`
	Normalized string  `json:"normalized,omitempty"`
}

// Clean trims surrounding whitespace and folds CRLF to LF.
func Clean(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
}

// Client talks to the normalizer.
type Client struct {
	endpoint string
	http     *http.Client
	log      logging.Printer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client. Its transport is used as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger reports failed calls.
func WithLogger(l logging.Printer) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for endpoint. An empty endpoint yields a client that
// can still report Same but returns ErrNoEndpoint for anything else.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		log: logging.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured normalizer URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type normalizeRequest struct {
	Display bool   `json:"display"`
	From    string `json:"from"`
	To      string `json:"to"`
	Text    string `json:"text"`
}

// Normalize returns the normalizer's canonical form of tex.
func (c *Client) Normalize(ctx context.Context, tex string) (string, error) {
	if c.endpoint == "" {
		return "", ErrNoEndpoint
	}
	body, err := json.Marshal(normalizeRequest{From: "tex", To: "tex", Text: tex})
	if err != nil {
		return "", fmt.Errorf("judge: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("judge: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("judge: post: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return "", fmt.Errorf("judge: read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return Clean(string(data)), nil
}

// StatusError is returned for a non-2xx normalizer response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("judge: normalizer returned %d", e.Code)
	}
	return fmt.Sprintf("judge: normalizer returned %d: %s", e.Code, e.Body)
}

// Judge compares want with got. A transport or status failure yields the
// Error verdict together with the cause.
func (c *Client) Judge(ctx context.Context, want, got string) (Result, error) {
	want, got = Clean(want), Clean(got)
	if want == got {
		return Result{Verdict: Same, Normalized: got}, nil
	}

	normGot, err := c.Normalize(ctx, got)
	if err != nil {
		c.log.Printf("judge: normalize actual: %v", err)
		return Result{Verdict: Error}, err
	}
	normWant, err := c.Normalize(ctx, want)
	if err != nil {
		c.log.Printf("judge: normalize expected: %v", err)
		return Result{Verdict: Error}, err
	}
	if normGot == normWant {
		return Result{Verdict: Equivalent, Normalized: normGot}, nil
	}
	return Result{Verdict: Different, Normalized: normGot}, nil
}
