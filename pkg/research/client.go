// Package research gathers search-engine evidence for the synthesis prompt
// through the Bright Data request API.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/troubleonmonday/forum-bot/pkg/sanitize"
	"github.com/troubleonmonday/forum-bot/pkg/types"
)

const (
	defaultEndpoint = "https://api.brightdata.com/request"

	maxItemsPerQuery = 8
	maxItemTitleLen  = 180
	maxSnippetLen    = 260
	maxShapeKeys     = 12
)

// Config holds configuration for the search client.
type Config struct {
	APIKey string
	Zone   string

	// Endpoint overrides the Bright Data API URL, used in tests.
	Endpoint string
	// HTTPClient overrides the default 30s-timeout client.
	HTTPClient *http.Client
}

// Client issues SERP requests through the Bright Data request API and
// normalizes the vendor's variously shaped payloads into evidence sets.
type Client struct {
	apiKey     string
	zone       string
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a search client.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		zone:       cfg.Zone,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type serpRequest struct {
	Zone       string `json:"zone"`
	URL        string `json:"url"`
	Format     string `json:"format"`
	DataFormat string `json:"data_format"`
	Method     string `json:"method"`
}

// Fetch runs one search query and returns its normalized evidence set.
func (c *Client) Fetch(ctx context.Context, query string) (types.EvidenceSet, error) {
	empty := types.EvidenceSet{Query: query, Items: []types.EvidenceItem{}, RawShape: []string{"unavailable"}}

	target := "https://www.google.com/search?q=" + url.QueryEscape(query) + "&hl=en&gl=us"
	body, err := json.Marshal(serpRequest{
		Zone:       c.zone,
		URL:        target,
		Format:     "raw",
		DataFormat: "parsed_light",
		Method:     "GET",
	})
	if err != nil {
		return empty, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return empty, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return empty, fmt.Errorf("search request failed (%d): %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	// The vendor does not reliably send a JSON content type. Anything that
	// fails to parse is kept as an opaque raw payload so the run degrades
	// instead of failing.
	var payload any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		payload = map[string]any{"raw": string(respBody)}
	}

	items := make([]types.EvidenceItem, 0, maxItemsPerQuery)
	for _, raw := range organicCandidates(payload) {
		item, ok := normalizeItem(raw)
		if !ok {
			continue
		}
		items = append(items, item)
		if len(items) == maxItemsPerQuery {
			break
		}
	}

	return types.EvidenceSet{Query: query, Items: items, RawShape: shapeKeys(payload)}, nil
}

// FetchAll issues one request per seed query, strictly sequentially. A
// failed query degrades to an empty evidence set and the run continues.
func (c *Client) FetchAll(ctx context.Context, queries []string) []types.EvidenceSet {
	sets := make([]types.EvidenceSet, 0, len(queries))
	for _, query := range queries {
		set, err := c.Fetch(ctx, query)
		if err != nil {
			log.Printf("SERP warning for %q: %v", query, err)
			sets = append(sets, set)
			continue
		}
		log.Printf("SERP: %q -> %d parsed results", query, len(set.Items))
		sets = append(sets, set)
	}
	return sets
}

// normalizeItem flattens one raw result into {title, url, snippet}. Items
// without both a title and a url carry no usable evidence and are dropped.
func normalizeItem(raw any) (types.EvidenceItem, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return types.EvidenceItem{}, false
	}

	title := sanitize.NormalizeWhitespace(firstString(obj, "title", "name", "headline"))
	link := sanitize.NormalizeWhitespace(firstString(obj, "link", "url", "href", "display_link"))
	snippet := sanitize.NormalizeWhitespace(firstString(obj, "snippet", "description", "body", "text"))

	if title == "" || link == "" {
		return types.EvidenceItem{}, false
	}
	return types.EvidenceItem{
		Title:   sanitize.Clip(title, maxItemTitleLen),
		URL:     link,
		Snippet: sanitize.Clip(snippet, maxSnippetLen),
	}, true
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// shapeKeys records the payload's top-level keys (sorted, capped) so shape
// drift shows up in the logs.
func shapeKeys(payload any) []string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return []string{"unknown"}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxShapeKeys {
		keys = keys[:maxShapeKeys]
	}
	return keys
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
