package etherscan

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type settings struct {
	logger     *zap.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures the Etherscan client.
type Option func(*settings)

// WithLogger sets a custom logger for the client.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithHTTPClient sets a custom HTTP client, e.g. for tests against a local
// stub server.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithLimiter overrides the request limiter. Useful for sharing one limiter
// across clients behind the same API key, or for removing the pacing delay in
// tests.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *settings) { s.limiter = l }
}

func applyOptions(opts []Option) settings {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
