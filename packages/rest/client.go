package rest

import (
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/chinazhenzhen/Storm-Bringer/packages/http"
)

// Transport executes a prepared request. Returned errors should implement
// FailureKind() string; *http.PoolManager does.
type Transport interface {
	Execute(req *http.Request) (*Response, error)
}

// Client sends REST requests through a Transport.
type Client struct {
	transport     Transport
	poolsSize     int
	caBundle      string
	configuration any
}

// Option configures a Client.
type Option func(*Client)

// NewClient returns a Client backed by a pooled, TLS-verifying transport
// unless WithTransport is given.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		poolsSize: http.DefaultPoolsSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		pool, err := http.NewPoolManager(
			http.WithPoolsSize(c.poolsSize),
			http.WithCABundle(c.caBundle),
		)
		if err != nil {
			return nil, err
		}
		c.transport = pool
	}

	return c, nil
}

// WithPoolsSize caps the idle connections the default transport keeps,
// in total and per host. Non-positive values are ignored.
func WithPoolsSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.poolsSize = n
		}
	}
}

// WithCABundle trusts the PEM certificates in path in addition to the
// system roots.
func WithCABundle(path string) Option {
	return func(c *Client) {
		c.caBundle = path
	}
}

// WithTransport replaces the default pooled transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithConfiguration stores cfg for later use. The client does not read it.
func WithConfiguration(cfg any) Option {
	return func(c *Client) {
		c.configuration = cfg
	}
}

// Configuration returns the value given to WithConfiguration.
func (c *Client) Configuration() any {
	return c.configuration
}

// Do sends req. Contract violations (unknown method, body together with
// post params) are returned before any I/O and are not *ApiError; every
// other failure is.
func (c *Client) Do(req Request) (*Response, error) {
	verb, err := req.validate()
	if err != nil {
		return nil, err
	}

	prepared, enc, err := prepare(verb, &req)
	if err != nil {
		return nil, c.fail(err)
	}

	var id string
	if klog.V(4).Enabled() {
		id = uuid.NewString()
		klog.Infof("rest: [%s] %s %s encoding=%s", id, prepared.Method, prepared.URL, enc)
	}

	start := time.Now()
	resp, err := c.transport.Execute(prepared)
	if err != nil {
		return nil, c.fail(failureError(err))
	}
	klog.V(4).Infof("rest: [%s] %d %s in %s", id, resp.StatusCode, resp.Reason, time.Since(start))

	if !resp.IsSuccess() {
		return nil, c.fail(newResponseError(resp))
	}
	return resp, nil
}

func (c *Client) fail(err error) error {
	klog.V(2).Infof("rest: request failed: %v", err)
	return err
}

// Get sends a GET request with query as URL fields.
func (c *Client) Get(url string, headers map[string]string, query Params) (*Response, error) {
	return c.Do(Request{
		Method:      string(GET),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
	})
}

// Head sends a HEAD request with query as URL fields.
func (c *Client) Head(url string, headers map[string]string, query Params) (*Response, error) {
	return c.Do(Request{
		Method:      string(HEAD),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
	})
}

// Options sends an OPTIONS request.
func (c *Client) Options(url string, headers map[string]string, query, postParams Params, body any) (*Response, error) {
	return c.Do(Request{
		Method:      string(OPTIONS),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
		PostParams:  postParams,
		Body:        body,
	})
}

// Delete sends a DELETE request. It takes no post params.
func (c *Client) Delete(url string, headers map[string]string, query Params, body any) (*Response, error) {
	return c.Do(Request{
		Method:      string(DELETE),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
	})
}

// Post sends a POST request.
func (c *Client) Post(url string, headers map[string]string, query, postParams Params, body any) (*Response, error) {
	return c.Do(Request{
		Method:      string(POST),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
		PostParams:  postParams,
		Body:        body,
	})
}

// Put sends a PUT request.
func (c *Client) Put(url string, headers map[string]string, query, postParams Params, body any) (*Response, error) {
	return c.Do(Request{
		Method:      string(PUT),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
		PostParams:  postParams,
		Body:        body,
	})
}

// Patch sends a PATCH request.
func (c *Client) Patch(url string, headers map[string]string, query, postParams Params, body any) (*Response, error) {
	return c.Do(Request{
		Method:      string(PATCH),
		URL:         url,
		Headers:     headers,
		QueryParams: query,
		PostParams:  postParams,
		Body:        body,
	})
}
