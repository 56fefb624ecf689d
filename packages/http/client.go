package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultPoolsSize is the default number of pooled idle connections
	DefaultPoolsSize = 4
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// PoolManager executes requests over a shared connection pool. It is safe
// for concurrent use.
type PoolManager struct {
	httpClient *http.Client
	poolsSize  int
	caBundle   string
}

type Option func(*PoolManager)

// NewPoolManager builds the pool. Certificates are always verified; the
// only error comes from loading the CA bundle.
func NewPoolManager(opts ...Option) (*PoolManager, error) {
	p := &PoolManager{
		poolsSize: DefaultPoolsSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	roots, err := loadRoots(p.caBundle)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:        p.poolsSize,
		MaxIdleConnsPerHost: p.poolsSize,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		TLSClientConfig: &tls.Config{
			RootCAs:    roots,
			MinVersion: tls.VersionTLS12,
		},
		// HTTP/1.1 only.
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}

	p.httpClient = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return p, nil
}

// WithPoolsSize caps the idle connections kept in total and per host. It
// sizes connections, not one pool per host. Non-positive values are ignored.
func WithPoolsSize(n int) Option {
	return func(p *PoolManager) {
		if n > 0 {
			p.poolsSize = n
		}
	}
}

// WithCABundle adds the PEM certificates in path to the system roots.
func WithCABundle(path string) Option {
	return func(p *PoolManager) {
		p.caBundle = path
	}
}

// PoolsSize returns the configured pool size.
func (p *PoolManager) PoolsSize() int {
	return p.poolsSize
}

func loadRoots(caBundle string) (*x509.CertPool, error) {
	roots, err := x509.SystemCertPool()
	if err != nil || roots == nil {
		roots = x509.NewCertPool()
	}
	if caBundle == "" {
		return roots, nil
	}

	pem, err := os.ReadFile(caBundle)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle: %w", err)
	}
	if !roots.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in CA bundle %s", caBundle)
	}
	return roots, nil
}

// Execute sends req and returns the fully read response. Any status code is
// a successful Execute; errors are always *Error.
func (p *PoolManager) Execute(req *Request) (*Response, error) {
	if req.Body != nil && len(req.Fields) > 0 {
		return nil, newError(KindEncoding, ErrBodyWithFields)
	}

	requestURL := req.URL
	var body io.Reader
	var contentType string

	switch {
	case req.Body != nil:
		body = bytes.NewReader(req.Body)
	case len(req.Fields) == 0:
	case fieldsInURL(req.Method):
		requestURL += "?" + req.Fields.Encode()
	case req.EncodeMultipart:
		multipartBody, ct, err := BuildMultipartBody(req.Fields)
		if err != nil {
			return nil, newError(KindEncoding, err)
		}
		body = multipartBody
		contentType = ct
	default:
		body = strings.NewReader(req.Fields.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(context.Background(), req.Method, requestURL, body)
	if err != nil {
		return nil, newError(classify(err), err)
	}

	// Keys that differ only in case are all sent, in sorted key order.
	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		httpReq.Header.Add(k, req.Headers[k])
	}

	// Encoder content type only when the caller did not set one
	if contentType != "" && !hasHeader(req.Headers, "Content-Type") {
		httpReq.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, newError(classify(err), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, newError(KindProtocol, err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Reason:     reasonPhrase(httpResp.StatusCode, httpResp.Status),
		Headers:    httpResp.Header,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

// CloseIdleConnections closes pooled connections that are not in use.
func (p *PoolManager) CloseIdleConnections() {
	p.httpClient.CloseIdleConnections()
}
