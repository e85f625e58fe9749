// Copyright 2025 ScentStack
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package enrichment

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default request timeout against the notes API
	DefaultTimeout = 10 * time.Second
	// DefaultMaxResponseSize is the maximum response body size (1MB)
	DefaultMaxResponseSize = 1 * 1024 * 1024
	// searchPath is the notes API search endpoint
	searchPath = "/search"
)

// Result is the outcome of a note lookup. Enrichment is best-effort: a
// degraded lookup carries Fallback=true and an empty Notes string, never an
// error, so callers cannot mistake degraded output for a failure.
type Result struct {
	Notes    string
	Fallback bool
}

// Ok wraps a successful lookup.
func Ok(notes string) Result {
	return Result{Notes: notes}
}

// Fallback is the degraded empty-string result.
func Fallback() Result {
	return Result{Fallback: true}
}

// Config holds the notes API settings.
type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MaxResponseSize int64
}

// Client queries the external scent-metadata service for top notes.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	logger          *log.Logger
	maxResponseSize int64
	cache           *Cache
}

// NewClient creates an enrichment client. cache may be nil, in which case
// every lookup goes to the upstream API.
func NewClient(cfg Config, cache *Cache) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	maxSize := cfg.MaxResponseSize
	if maxSize == 0 {
		maxSize = DefaultMaxResponseSize
	}

	transport := &http.Transport{
		MaxIdleConns:    100,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger:          log.New(os.Stdout, "[ENRICHMENT] ", log.LstdFlags),
		maxResponseSize: maxSize,
		cache:           cache,
	}
}

// searchResponse mirrors the notes API response shape. TopNotes is a pointer
// so a missing field is distinguishable from an empty array.
type searchResponse struct {
	Results []struct {
		TopNotes *[]string `json:"topNotes"`
	} `json:"results"`
}

// TopNotes fetches descriptive top notes for a perfume name. A single
// synchronous request is issued, asking for at most one result and at most
// one embedded review. Every failure mode degrades to Fallback: enrichment
// must never block record creation.
func (c *Client) TopNotes(ctx context.Context, name string) Result {
	if cached, ok := c.cache.Get(ctx, name); ok {
		return Ok(cached)
	}

	reqURL, err := url.Parse(c.baseURL + searchPath)
	if err != nil {
		c.logger.Printf("Invalid notes API URL: %v", err)
		return Fallback()
	}

	params := url.Values{}
	params.Set("q", name)
	params.Set("limit", "1")
	params.Set("reviews", "1")
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		c.logger.Printf("Failed to create notes request: %v", err)
		return Fallback()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ScentStack-Enrichment/1.0")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("Notes lookup failed for %q: %v", name, err)
		return Fallback()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		c.logger.Printf("Notes lookup for %q returned HTTP %d", name, resp.StatusCode)
		return Fallback()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		c.logger.Printf("Failed to read notes response for %q: %v", name, err)
		return Fallback()
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Printf("Malformed notes response for %q: %v", name, err)
		return Fallback()
	}

	if len(parsed.Results) == 0 || parsed.Results[0].TopNotes == nil {
		c.logger.Printf("No notes found for %q", name)
		return Fallback()
	}

	notes := strings.Join(*parsed.Results[0].TopNotes, ", ")
	c.cache.Set(ctx, name, notes)

	return Ok(notes)
}
