package rest

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinazhenzhen/Storm-Bringer/packages/http"
)

// spyTransport records every request and answers with a canned response.
type spyTransport struct {
	calls []*http.Request
	resp  *http.Response
	err   error
}

func (s *spyTransport) Execute(req *http.Request) (*http.Response, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &http.Response{StatusCode: 200, Reason: "OK"}, nil
}

func (s *spyTransport) last(t *testing.T) *http.Request {
	t.Helper()
	require.NotEmpty(t, s.calls, "transport was not called")
	return s.calls[len(s.calls)-1]
}

func newSpyClient(t *testing.T, spy *spyTransport) *Client {
	t.Helper()
	c, err := NewClient(WithTransport(spy))
	require.NoError(t, err)
	return c
}

func TestClient_MethodNormalized(t *testing.T) {
	for _, method := range []string{"get", "Head", "delete", "pOsT", "put", "patch", "options"} {
		t.Run(method, func(t *testing.T) {
			spy := &spyTransport{}
			_, err := newSpyClient(t, spy).Do(Request{Method: method, URL: "http://api.test/x", Body: "raw"})

			require.NoError(t, err)
			assert.Equal(t, strings.ToUpper(method), spy.last(t).Method)
		})
	}
}

func TestClient_UnsupportedMethod(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Do(Request{Method: "TRACE", URL: "http://api.test"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
	var apiErr *ApiError
	assert.False(t, errors.As(err, &apiErr))
	assert.Empty(t, spy.calls)
}

func TestClient_BodyWithPostParams(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Do(Request{
		Method:     "POST",
		URL:        "http://api.test",
		Body:       map[string]any{"x": 1},
		PostParams: Params{{Key: "a", Value: "1"}},
	})

	require.ErrorIs(t, err, ErrBodyWithPostParams)
	var apiErr *ApiError
	assert.False(t, errors.As(err, &apiErr))
	assert.Empty(t, spy.calls)
}

func TestClient_EmptyBodyWithPostParamsAllowed(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Do(Request{
		Method:     "POST",
		URL:        "http://api.test",
		Headers:    map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:       map[string]any{},
		PostParams: Params{{Key: "a", Value: "1"}},
	})

	require.NoError(t, err)
	assert.Equal(t, Params{{Key: "a", Value: "1"}}, spy.last(t).Fields)
}

func TestClient_GetPassesQueryAsFields(t *testing.T) {
	for _, verb := range []Verb{GET, HEAD} {
		t.Run(string(verb), func(t *testing.T) {
			spy := &spyTransport{}
			query := Params{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
			_, err := newSpyClient(t, spy).Do(Request{
				Method:      string(verb),
				URL:         "http://api.test/items",
				QueryParams: query,
				Headers:     map[string]string{"Content-Type": "multipart/form-data"},
				Body:        map[string]any{"ignored": true},
			})

			require.NoError(t, err)
			got := spy.last(t)
			assert.Equal(t, "http://api.test/items", got.URL)
			assert.Equal(t, query, got.Fields)
			assert.Nil(t, got.Body)
			assert.False(t, got.EncodeMultipart)
			assert.Equal(t, "multipart/form-data", got.Headers["Content-Type"])
		})
	}
}

func TestClient_DefaultJSON(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Post("http://api.test", nil, nil, nil, map[string]any{"x": 1})

	require.NoError(t, err)
	got := spy.last(t)
	assert.Equal(t, "application/json", got.Headers["Content-Type"])
	assert.JSONEq(t, `{"x":1}`, string(got.Body))
	assert.Nil(t, got.Fields)
}

func TestClient_JSONNilBody(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Delete("http://api.test/items/1", nil, nil, nil)

	require.NoError(t, err)
	assert.Nil(t, spy.last(t).Body)
}

func TestClient_JSONEmptyListBody(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Put("http://api.test", nil, nil, nil, []string{})

	require.NoError(t, err)
	assert.Equal(t, "[]", string(spy.last(t).Body))
}

func TestClient_QueryAppendedForBodyVerbs(t *testing.T) {
	for _, verb := range []Verb{POST, PUT, PATCH, OPTIONS, DELETE} {
		t.Run(string(verb), func(t *testing.T) {
			spy := &spyTransport{}
			_, err := newSpyClient(t, spy).Do(Request{
				Method:      string(verb),
				URL:         "http://api.test/items",
				QueryParams: Params{{Key: "dry run", Value: "all"}, {Key: "a", Value: "1"}},
			})

			require.NoError(t, err)
			assert.Equal(t, "http://api.test/items?dry+run=all&a=1", spy.last(t).URL)
		})
	}
}

func TestClient_JSONPatch(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        any
		want        string
	}{
		{
			name:        "operation list keeps json patch",
			contentType: "application/json-patch+json",
			body:        []map[string]any{{"op": "add", "path": "/a", "value": 1}},
			want:        "application/json-patch+json",
		},
		{
			name:        "single object becomes strategic merge patch",
			contentType: "application/json-patch+json",
			body:        map[string]any{"op": "add"},
			want:        "application/strategic-merge-patch+json",
		},
		{
			name:        "raw array keeps json patch",
			contentType: "application/json-patch+json",
			body:        json.RawMessage(` [{"op":"remove","path":"/a"}]`),
			want:        "application/json-patch+json",
		},
		{
			name:        "raw object becomes strategic merge patch",
			contentType: "application/json-patch+json",
			body:        json.RawMessage(`{"spec":{"replicas":2}}`),
			want:        "application/strategic-merge-patch+json",
		},
		{
			name:        "nil body becomes strategic merge patch",
			contentType: "application/json-patch+json",
			body:        nil,
			want:        "application/strategic-merge-patch+json",
		},
		{
			name:        "merge patch untouched",
			contentType: "application/merge-patch+json",
			body:        map[string]any{"a": 1},
			want:        "application/merge-patch+json",
		},
		{
			name:        "json detection is case-insensitive",
			contentType: "Application/JSON; charset=utf-8",
			body:        map[string]any{"a": 1},
			want:        "Application/JSON; charset=utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyTransport{}
			_, err := newSpyClient(t, spy).Patch("http://api.test", map[string]string{"Content-Type": tt.contentType}, nil, nil, tt.body)

			require.NoError(t, err)
			assert.Equal(t, tt.want, spy.last(t).Headers["Content-Type"])
		})
	}
}

func TestClient_Form(t *testing.T) {
	spy := &spyTransport{}
	post := Params{{Key: "name", Value: "alice"}}
	_, err := newSpyClient(t, spy).Post("http://api.test",
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, nil, post, nil)

	require.NoError(t, err)
	got := spy.last(t)
	assert.Equal(t, post, got.Fields)
	assert.False(t, got.EncodeMultipart)
	assert.Nil(t, got.Body)
	assert.Equal(t, "application/x-www-form-urlencoded", got.Headers["Content-Type"])
}

func TestClient_MultipartDropsContentType(t *testing.T) {
	spy := &spyTransport{}
	post := Params{{Key: "file", Value: "data"}}
	headers := map[string]string{"Content-Type": "multipart/form-data", "X-Trace": "1"}
	_, err := newSpyClient(t, spy).Put("http://api.test", headers, nil, post, nil)

	require.NoError(t, err)
	got := spy.last(t)
	_, ok := got.Headers["Content-Type"]
	assert.False(t, ok)
	assert.Equal(t, "1", got.Headers["X-Trace"])
	assert.True(t, got.EncodeMultipart)
	assert.Equal(t, post, got.Fields)

	// caller's map is untouched
	assert.Equal(t, "multipart/form-data", headers["Content-Type"])
}

func TestClient_RawStringBody(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Post("http://api.test",
		map[string]string{"Content-Type": "text/plain"}, nil, nil, "hello, world")

	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(spy.last(t).Body))
	assert.Equal(t, "text/plain", spy.last(t).Headers["Content-Type"])
}

func TestClient_NoEncodingMatches(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Post("http://api.test",
		map[string]string{"Content-Type": "text/plain"}, nil, nil, map[string]any{"x": 1})

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, strings.HasPrefix(apiErr.Reason, "Cannot prepare a request message for provided arguments."))
	assert.Nil(t, apiErr.Body)
	assert.Nil(t, apiErr.Headers)
	assert.Empty(t, spy.calls)
}

func TestClient_HeaderKeyIsCaseSensitive(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Post("http://api.test",
		map[string]string{"content-type": "text/plain"}, nil, nil, map[string]any{"x": 1})

	require.NoError(t, err)
	got := spy.last(t)
	assert.Equal(t, "application/json", got.Headers["Content-Type"])
	assert.Equal(t, "text/plain", got.Headers["content-type"])
}

func TestClient_CallerHeadersNotMutated(t *testing.T) {
	spy := &spyTransport{}
	headers := map[string]string{"Accept": "application/json"}
	_, err := newSpyClient(t, spy).Get("http://api.test", headers, nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, headers)
	assert.Equal(t, "application/json", spy.last(t).Headers["Content-Type"])
}

func TestClient_EncodingFailure(t *testing.T) {
	spy := &spyTransport{}
	_, err := newSpyClient(t, spy).Post("http://api.test", nil, nil, nil, map[string]any{"ch": make(chan int)})

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, strings.HasPrefix(apiErr.Reason, "EncodingError\n"))
	assert.Empty(t, spy.calls)
}

type kindError struct{ kind, msg string }

func (e kindError) Error() string       { return e.msg }
func (e kindError) FailureKind() string { return e.kind }

func TestClient_TransportFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"kinded", kindError{kind: "DNSError", msg: "no such host"}, "DNSError\nno such host"},
		{"wrapped kinded", &http.Error{Kind: http.KindTLS, Err: errors.New("x509: unknown authority")}, "TLSError\nx509: unknown authority"},
		{"plain", errors.New("boom"), "Error\nboom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyTransport{err: tt.err}
			_, err := newSpyClient(t, spy).Get("http://api.test", nil, nil)

			var apiErr *ApiError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 0, apiErr.Status)
			assert.True(t, apiErr.IsTransport())
			assert.Equal(t, tt.want, apiErr.Reason)
			assert.Nil(t, apiErr.Body)
			assert.Nil(t, apiErr.Headers)
			assert.Len(t, spy.calls, 1)
		})
	}
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{199, true},
		{200, false},
		{204, false},
		{299, false},
		{300, true},
		{404, true},
		{500, true},
	}

	for _, tt := range tests {
		spy := &spyTransport{resp: &http.Response{
			StatusCode: tt.status,
			Reason:     "R",
			Headers:    http.Header{"X-Id": []string{"7"}},
			Body:       []byte(`{"kind":"Status"}`),
		}}
		resp, err := newSpyClient(t, spy).Get("http://api.test", nil, nil)

		if !tt.wantErr {
			require.NoError(t, err, "status %d", tt.status)
			assert.Same(t, spy.resp, resp)
			continue
		}
		var apiErr *ApiError
		require.ErrorAs(t, err, &apiErr, "status %d", tt.status)
		assert.Equal(t, tt.status, apiErr.StatusCode())
		assert.Equal(t, "R", apiErr.Reason)
		assert.Equal(t, `{"kind":"Status"}`, string(apiErr.Body))
		assert.Equal(t, "7", apiErr.Headers.Get("X-Id"))
	}
}

func TestClient_ErrorSnapshotsResponse(t *testing.T) {
	resp := &http.Response{
		StatusCode: 404,
		Reason:     "Not Found",
		Headers:    http.Header{"X-Id": []string{"1"}},
		Body:       []byte("missing"),
	}
	_, err := newSpyClient(t, &spyTransport{resp: resp}).Get("http://api.test", nil, nil)

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	resp.Body[0] = 'X'
	resp.Headers.Set("X-Id", "2")
	assert.Equal(t, "missing", string(apiErr.Body))
	assert.Equal(t, "1", apiErr.Headers.Get("X-Id"))
}

func TestClient_Configuration(t *testing.T) {
	cfg := map[string]any{"host": "api.test"}
	c, err := NewClient(WithTransport(&spyTransport{}), WithConfiguration(cfg))
	require.NoError(t, err)
	assert.Equal(t, cfg, c.Configuration())
}

func TestNewClient_DefaultTransport(t *testing.T) {
	c, err := NewClient(WithPoolsSize(2))
	require.NoError(t, err)
	pool, ok := c.transport.(*http.PoolManager)
	require.True(t, ok)
	assert.Equal(t, 2, pool.PoolsSize())

	_, err = NewClient(WithCABundle("/does/not/exist.pem"))
	assert.Error(t, err)
}

func TestClient_EndToEnd(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/pods":
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "ns=default", r.URL.RawQuery)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"web"}`, string(body))
			w.WriteHeader(nethttp.StatusCreated)
			_, _ = w.Write([]byte(`{"name":"web","uid":"42"}`))
		case "/upload":
			assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "v", r.FormValue("k"))
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			w.Header().Set("X-Reason", "gone")
			w.WriteHeader(nethttp.StatusNotFound)
			_, _ = w.Write([]byte("not here"))
		}
	}))
	defer server.Close()

	c, err := NewClient()
	require.NoError(t, err)

	resp, err := c.Post(server.URL+"/pods", nil, Params{{Key: "ns", Value: "default"}}, nil, map[string]string{"name": "web"})
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "42", resp.Get("uid").String())

	resp, err = c.Post(server.URL+"/upload", map[string]string{"Content-Type": "multipart/form-data"}, nil, Params{{Key: "k", Value: "v"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	_, err = c.Get(server.URL+"/nope", nil, nil)
	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "Not Found", apiErr.Reason)
	assert.Equal(t, "not here", string(apiErr.Body))
	assert.Equal(t, "gone", apiErr.Headers.Get("X-Reason"))
}

func TestClient_LowercaseContentTypeOnTheWire(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]int{}
	)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		seen[strings.Join(r.Header.Values("Content-Type"), ",")]++
		mu.Unlock()
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	c, err := NewClient()
	require.NoError(t, err)

	// the default Content-Type is added next to the lowercase key
	headers := map[string]string{"content-type": "text/plain"}
	for i := 0; i < 30; i++ {
		_, err := c.Post(server.URL, headers, nil, nil, map[string]string{"a": "b"})
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"application/json,text/plain": 30}, seen)
}

func TestClient_EndToEndConnectionRefused(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {}))
	addr := server.URL
	server.Close()

	c, err := NewClient()
	require.NoError(t, err)

	_, err = c.Get(addr, nil, nil)
	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, strings.HasPrefix(apiErr.Reason, "ConnectionError\n"))
	assert.Contains(t, apiErr.Reason, "connection refused")
}
