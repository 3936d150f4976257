// Package fetch builds the HTTP client the in-process host loads documents with. Requests
// carry the persona's identity headers, share a cookie jar and decode gzip, deflate and
// brotli bodies.
package fetch

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/internal/browser/emulation"
)

const (
	DefaultTimeout         = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
	maxIdleConnsPerHost    = 10
	documentAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Config configures NewClient.
type Config struct {
	Timeout  time.Duration
	Persona  schemas.Persona
	Referrer string
	// InsecureSkipVerify accepts any server certificate.
	InsecureSkipVerify bool
	Logger             *zap.Logger
}

// NewClient returns a client that identifies as cfg.Persona.
func NewClient(cfg Config) *http.Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	// decompressTransport also handles brotli, which the stock transport does not.
	base.DisableCompression = true
	base.MaxIdleConnsPerHost = maxIdleConnsPerHost
	base.IdleConnTimeout = defaultIdleConnTimeout
	if cfg.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	// cookiejar.New only fails on invalid options.
	jar, _ := cookiejar.New(nil)

	return &http.Client{
		Timeout: timeout,
		Jar:     jar,
		Transport: &identityTransport{
			base:    &decompressTransport{base: base},
			headers: identityHeaders(cfg.Persona, cfg.Referrer),
			logger:  logger.Named("fetch"),
		},
	}
}

func identityHeaders(p schemas.Persona, referrer string) http.Header {
	h := make(http.Header)
	h.Set("Accept", documentAccept)
	if p.UserAgent != "" {
		h.Set("User-Agent", p.UserAgent)
	}
	if lang := emulation.AcceptLanguage(p.Languages); lang != "" {
		h.Set("Accept-Language", lang)
	}
	if referrer != "" {
		h.Set("Referer", referrer)
	}
	return h
}

// identityTransport fills in headers the request does not already set.
type identityTransport struct {
	base    http.RoundTripper
	headers http.Header
	logger  *zap.Logger
}

func (t *identityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for name, values := range t.headers {
		if req.Header.Get(name) == "" {
			req.Header[name] = values
		}
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("Request failed.", zap.String("url", req.URL.String()), zap.Error(err))
		return nil, err
	}
	t.logger.Debug("Response received.",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Bool("decoded", resp.Uncompressed),
	)
	return resp, nil
}

func (t *identityTransport) CloseIdleConnections() { closeIdle(t.base) }

func closeIdle(rt http.RoundTripper) {
	if c, ok := rt.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
