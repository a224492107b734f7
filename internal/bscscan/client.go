// Package bscscan is a thin client for the BscScan REST API.
// Every miss collapses to an error; callers convert those to
// unknown-data outcomes rather than failing an analysis.
package bscscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the BscScan API endpoint.
const DefaultBaseURL = "https://api.bscscan.com/api"

// DefaultTimeout bounds every explorer request.
const DefaultTimeout = 8 * time.Second

// Errors returned by the client.
var (
	// ErrNoAPIKey marks the deterministic miss when no key is configured.
	ErrNoAPIKey = errors.New("bscscan: api key not configured")

	// ErrMalformedABI marks an ABI payload that decodes but is not a
	// declaration list.
	ErrMalformedABI = errors.New("bscscan: malformed abi")
)

// Client calls the BscScan API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a BscScan client. An empty apiKey is allowed; all
// calls then return ErrNoAPIKey without touching the network.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool {
	return c.apiKey != ""
}

// envelope is the BscScan response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// get performs an API GET and unwraps the response envelope.
func (c *Client) get(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	if env.Status != "1" || len(env.Result) == 0 {
		return nil, fmt.Errorf("api status %q: %s", env.Status, env.Message)
	}

	return env.Result, nil
}

// ABIEntry is one declaration in a verified contract interface.
type ABIEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ContractABI is a verified contract's declaration list in source order.
type ContractABI struct {
	Entries []ABIEntry
}

// EntryCount returns the number of declarations, including events and
// the constructor.
func (a *ContractABI) EntryCount() int {
	return len(a.Entries)
}

// FunctionNames returns declared function names in declaration order.
// Overloads collapse to a single entry.
func (a *ContractABI) FunctionNames() []string {
	var names []string
	seen := make(map[string]struct{}, len(a.Entries))
	for _, e := range a.Entries {
		if e.Type != "function" || e.Name == "" {
			continue
		}
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		names = append(names, e.Name)
	}
	return names
}

// HasFunction reports whether a function with the exact name is declared.
func (a *ContractABI) HasFunction(name string) bool {
	for _, e := range a.Entries {
		if e.Type == "function" && e.Name == name {
			return true
		}
	}
	return false
}

// ContractABI fetches and decodes the verified ABI for a contract.
// Unverified contracts surface as an envelope error; a payload that is
// valid JSON but not a declaration list wraps ErrMalformedABI.
func (c *Client) ContractABI(ctx context.Context, address string) (*ContractABI, error) {
	raw, err := c.get(ctx, url.Values{
		"module":  {"contract"},
		"action":  {"getabi"},
		"address": {address},
	})
	if err != nil {
		return nil, err
	}

	// The result is a JSON string containing the ABI document.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("decode abi payload: %w", err)
	}
	if !json.Valid([]byte(encoded)) {
		return nil, fmt.Errorf("abi payload is not json: %q", truncate(encoded, 80))
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return nil, fmt.Errorf("abi is not a declaration list: %w", ErrMalformedABI)
	}

	entries := make([]ABIEntry, 0, len(items))
	for _, item := range items {
		var e ABIEntry
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, fmt.Errorf("abi declaration: %w", ErrMalformedABI)
		}
		entries = append(entries, e)
	}

	return &ContractABI{Entries: entries}, nil
}

// Holder is one row of a token holder list.
type Holder struct {
	Address  string `json:"TokenHolderAddress"`
	Quantity string `json:"TokenHolderQuantity"`
}

// TokenHolders fetches the first page of the largest token holders.
func (c *Client) TokenHolders(ctx context.Context, address string, limit int) ([]Holder, error) {
	raw, err := c.get(ctx, url.Values{
		"module":          {"token"},
		"action":          {"tokenholderlist"},
		"contractaddress": {address},
		"page":            {"1"},
		"offset":          {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}

	var holders []Holder
	if err := json.Unmarshal(raw, &holders); err != nil {
		return nil, fmt.Errorf("decode holder list: %w", err)
	}
	return holders, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
