// Package etherscan implements a rate-limited client for the Etherscan v2
// getsourcecode API. One client owns one request limiter, so independent
// pipelines with separate API keys pace independently.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aomi-labs/db-master/pkg/contract"
)

const (
	defaultBaseURL           = "https://api.etherscan.io/v2/api"
	defaultRequestsPerSecond = 5
	defaultMaxRetries        = 3
	defaultRequestTimeout    = 30 * time.Second
)

// Config contains the configuration required to initialize the client.
type Config struct {
	APIKey string

	// BaseURL overrides the Etherscan v2 endpoint.
	BaseURL string

	// RequestsPerSecond is the API key's request ceiling. The free tier
	// allows 5 requests per second.
	RequestsPerSecond float64

	// MaxRetries bounds transport/decode retries per request.
	MaxRetries int

	// RequestTimeout bounds a single HTTP request, independent of the
	// rate-limit delay.
	RequestTimeout time.Duration
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.APIKey == "" {
		return errors.New("api_key is required")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("requests_per_second must not be negative")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	return nil
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if out.RequestsPerSecond == 0 {
		out.RequestsPerSecond = defaultRequestsPerSecond
	}
	if out.MaxRetries == 0 {
		out.MaxRetries = defaultMaxRetries
	}
	if out.RequestTimeout == 0 {
		out.RequestTimeout = defaultRequestTimeout
	}
	return out
}

// Client fetches verified contract source and ABI metadata.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a new Etherscan client.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid etherscan config: %w", err)
	}
	resolved := cfg.withDefaults()

	s := applyOptions(opts)
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: resolved.RequestTimeout}
	}
	if s.limiter == nil {
		interval := time.Duration(float64(time.Second) / resolved.RequestsPerSecond)
		s.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return &Client{
		cfg:        resolved,
		httpClient: s.httpClient,
		limiter:    s.limiter,
		logger:     s.logger,
	}, nil
}

// FetchContract fetches the verified source and ABI for a contract. When the
// contract is a proxy it additionally resolves the implementation's source,
// one extra rate-limited request, and marks the record accordingly. All
// failures come back as *FetchError values.
func (c *Client) FetchContract(ctx context.Context, address string, chainID int64, protocol string) (*contract.Record, error) {
	addr, err := contract.NormalizeAddress(address)
	if err != nil {
		return nil, newFetchError(address, chainID, ErrDecode, err)
	}

	primary, err := c.getSource(ctx, addr, chainID)
	if err != nil {
		return nil, err
	}

	name := primary.ContractName
	if name == "" {
		name = contract.UnknownName
	}

	rec := &contract.Record{
		Address:      addr,
		Chain:        contract.ChainName(chainID),
		ChainID:      chainID,
		Name:         name,
		SourceCode:   primary.SourceCode,
		ABI:          primary.ABI,
		Protocol:     protocol,
		ContractType: contract.DetectType(name),
	}

	if primary.isProxy() {
		c.resolveImplementation(ctx, rec, primary.Implementation)
	}

	return rec, nil
}

// resolveImplementation fetches the implementation contract behind a proxy
// and swaps its source/ABI into the record. The proxy shell's own source is
// kept when the implementation cannot be fetched.
func (c *Client) resolveImplementation(ctx context.Context, rec *contract.Record, implementation string) {
	rec.IsProxy = true

	implAddr, err := contract.NormalizeAddress(implementation)
	if err != nil {
		c.logger.Warn("proxy implementation address is malformed",
			zap.String("address", rec.Address),
			zap.String("implementation", implementation))
		return
	}
	rec.ImplementationAddress = implAddr

	impl, err := c.getSource(ctx, implAddr, rec.ChainID)
	if err != nil {
		c.logger.Warn("failed to fetch proxy implementation source",
			zap.String("address", rec.Address),
			zap.String("implementation", implAddr),
			zap.Error(err))
		return
	}

	rec.SourceCode = impl.SourceCode
	rec.ABI = impl.ABI
	if impl.ContractName != "" {
		rec.Name = impl.ContractName
		rec.ContractType = contract.DetectType(impl.ContractName)
	}
}

// getSource issues one getsourcecode request, retrying transport and decode
// failures. Every attempt waits on the limiter first, so retries keep the
// same pacing as fresh requests.
func (c *Client) getSource(ctx context.Context, address string, chainID int64) (*sourceResult, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newFetchError(address, chainID, ErrTransport, err)
		}

		res, err := c.doGetSource(ctx, address, chainID)
		if err == nil {
			return res, nil
		}
		if IsNotVerified(err) {
			return nil, err
		}

		lastErr = err
		if attempt < c.cfg.MaxRetries {
			c.logger.Debug("retrying contract source fetch",
				zap.String("address", address),
				zap.Int64("chain_id", chainID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		}
	}

	return nil, lastErr
}

func (c *Client) doGetSource(ctx context.Context, address string, chainID int64) (*sourceResult, error) {
	q := url.Values{}
	q.Set("chainid", strconv.FormatInt(chainID, 10))
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address)
	q.Set("apikey", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, newFetchError(address, chainID, ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newFetchError(address, chainID, ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newFetchError(address, chainID, ErrTransport,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, newFetchError(address, chainID, ErrDecode, err)
	}

	if envelope.Status != "1" {
		return nil, c.classifyAPIError(address, chainID, &envelope)
	}

	var results []sourceResult
	if err := json.Unmarshal(envelope.Result, &results); err != nil {
		return nil, newFetchError(address, chainID, ErrDecode, err)
	}
	if len(results) == 0 {
		return nil, newFetchError(address, chainID, ErrNotVerified,
			fmt.Errorf("no contract found at address %s", address))
	}

	res := &results[0]
	if !res.verified() {
		return nil, newFetchError(address, chainID, ErrNotVerified, nil)
	}

	return res, nil
}

// classifyAPIError maps status!=1 envelopes into the error taxonomy. "Not
// verified" and "not found" answers are terminal for the address; everything
// else (rate limiting, maintenance) is worth a retry.
func (c *Client) classifyAPIError(address string, chainID int64, envelope *apiEnvelope) error {
	detail := envelope.Message
	var resultStr string
	if json.Unmarshal(envelope.Result, &resultStr) == nil && resultStr != "" {
		detail = resultStr
	}

	lower := strings.ToLower(detail)
	if strings.Contains(lower, "not verified") || strings.Contains(lower, "not found") ||
		strings.Contains(lower, "no data found") {
		return newFetchError(address, chainID, ErrNotVerified, errors.New(detail))
	}

	return newFetchError(address, chainID, ErrTransport,
		fmt.Errorf("etherscan api error: %s", detail))
}
