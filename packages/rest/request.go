package rest

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/chinazhenzhen/Storm-Bringer/packages/http"
)

// Verb is an HTTP method accepted by Client.
type Verb string

const (
	GET     Verb = "GET"
	HEAD    Verb = "HEAD"
	DELETE  Verb = "DELETE"
	POST    Verb = "POST"
	PUT     Verb = "PUT"
	PATCH   Verb = "PATCH"
	OPTIONS Verb = "OPTIONS"
)

var verbs = []Verb{GET, HEAD, DELETE, POST, PUT, PATCH, OPTIONS}

// ParseVerb matches method case-insensitively.
func ParseVerb(method string) (Verb, error) {
	upper := Verb(strings.ToUpper(method))
	for _, v := range verbs {
		if v == upper {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
}

// carriesBody reports whether v sends a request body.
func (v Verb) carriesBody() bool {
	return v != GET && v != HEAD
}

type (
	Param    = http.Param
	Params   = http.Params
	Response = http.Response
)

// Request describes one call. Body is any JSON-encodable value, or a raw
// string for non-JSON content types. Body and PostParams are mutually
// exclusive.
type Request struct {
	Method      string
	URL         string
	QueryParams Params
	Headers     map[string]string
	Body        any
	PostParams  Params
}

func (r *Request) validate() (Verb, error) {
	verb, err := ParseVerb(r.Method)
	if err != nil {
		return "", err
	}
	if len(r.PostParams) > 0 && !isEmpty(r.Body) {
		return "", ErrBodyWithPostParams
	}
	return verb, nil
}

// headers returns a copy of the caller's headers with the Content-Type
// default applied.
//
// Only the exact key "Content-Type" counts as present, so a caller that
// sends "content-type" also gets "Content-Type: application/json".
// TODO: match the key case-insensitively once generated callers stop
// relying on the exact-key lookup.
func (r *Request) headers() map[string]string {
	h := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		h[k] = v
	}
	if _, ok := h[contentTypeHeader]; !ok {
		h[contentTypeHeader] = mimeJSON
	}
	return h
}

// isNil reports whether body means "no body".
func isNil(body any) bool {
	if body == nil {
		return true
	}
	v := reflect.ValueOf(body)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// isEmpty is isNil plus zero-length strings, slices, arrays and maps.
func isEmpty(body any) bool {
	if isNil(body) {
		return true
	}
	v := reflect.ValueOf(body)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	}
	return false
}
