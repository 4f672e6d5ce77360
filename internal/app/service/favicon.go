package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultFaviconTimeout = 5 * time.Second

// FaviconProber reports whether a favicon can be fetched from url.
// Implementations never fail; every error means "no favicon".
type FaviconProber interface {
	Probe(ctx context.Context, url string) bool
}

// HTTPFaviconProber issues a GET with browser-like headers.
type HTTPFaviconProber struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewHTTPFaviconProber returns a prober whose requests give up after timeout.
func NewHTTPFaviconProber(timeout time.Duration, userAgent string, logger *zap.Logger) *HTTPFaviconProber {
	if timeout <= 0 {
		timeout = defaultFaviconTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFaviconProber{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

func (p *HTTPFaviconProber) Probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.logger.Debug("favicon request not built", zap.String("url", url), zap.Error(err))
		return false
	}
	req.Header.Set("Accept", "text/xml,application/xml,application/xhtml+xml,text/html;q=0.9,text/plain;q=0.8,image/png,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-us,en;q=0.5")
	req.Header.Set("Accept-Charset", "ISO-8859-1,utf-8;q=0.7,*;q=0.7")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Close = true

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("favicon probe failed", zap.String("url", url), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// staticProber answers every probe with the same result.
type staticProber bool

func (s staticProber) Probe(context.Context, string) bool { return bool(s) }

// NoFaviconProber never finds a favicon and never touches the network.
var NoFaviconProber FaviconProber = staticProber(false)
