package http

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
)

// Param is a single key/value pair of request fields.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of request fields. Unlike url.Values it keeps
// insertion order when encoded.
type Params []Param

func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Encode returns the fields in application/x-www-form-urlencoded form.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

// Request is a prepared transport request. Body and Fields are mutually
// exclusive; nil means absent.
type Request struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            []byte
	Fields          Params
	EncodeMultipart bool
}

// fieldsInURL reports whether fields for method are sent in the query
// string rather than the body.
func fieldsInURL(method string) bool {
	switch method {
	case "GET", "HEAD", "DELETE", "OPTIONS":
		return true
	}
	return false
}

// hasHeader reports whether headers carries key, compared case-insensitively.
func hasHeader(headers map[string]string, key string) bool {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// BuildMultipartBody creates a multipart form data body from fields.
func BuildMultipartBody(fields Params) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if err := writer.WriteField(field.Key, field.Value); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

// ParseFormBody decodes an application/x-www-form-urlencoded body,
// keeping field order. Pairs without "=" get an empty value.
func ParseFormBody(body string) (Params, error) {
	var result Params
	if body == "" {
		return result, nil
	}
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("invalid form field %q: %w", pair, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("invalid form field %q: %w", pair, err)
		}
		result = append(result, Param{Key: key, Value: value})
	}
	return result, nil
}
