package rest

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chinazhenzhen/Storm-Bringer/packages/http"
)

const (
	contentTypeHeader = "Content-Type"

	mimeJSON                = "application/json"
	mimeJSONPatch           = "application/json-patch+json"
	mimeStrategicMergePatch = "application/strategic-merge-patch+json"
	mimeForm                = "application/x-www-form-urlencoded"
	mimeMultipart           = "multipart/form-data"
)

// encoding is how a request's payload is put on the wire.
type encoding int

const (
	encodingURLFields encoding = iota
	encodingJSON
	encodingForm
	encodingMultipart
	encodingRaw
	encodingUnsupported
)

func (e encoding) String() string {
	switch e {
	case encodingURLFields:
		return "url-fields"
	case encodingJSON:
		return "json"
	case encodingForm:
		return "form"
	case encodingMultipart:
		return "multipart"
	case encodingRaw:
		return "raw"
	default:
		return "unsupported"
	}
}

func selectEncoding(verb Verb, contentType string, body any) encoding {
	switch {
	case !verb.carriesBody():
		return encodingURLFields
	case strings.Contains(strings.ToLower(contentType), "json"):
		return encodingJSON
	case contentType == mimeForm:
		return encodingForm
	case contentType == mimeMultipart:
		return encodingMultipart
	}
	switch body.(type) {
	case string:
		return encodingRaw
	}
	return encodingUnsupported
}

// prepare turns a validated request into a transport request. Failures are
// *ApiError.
func prepare(verb Verb, req *Request) (*http.Request, encoding, error) {
	headers := req.headers()
	enc := selectEncoding(verb, headers[contentTypeHeader], req.Body)

	out := &http.Request{
		Method:  string(verb),
		URL:     req.URL,
		Headers: headers,
	}
	if verb.carriesBody() && len(req.QueryParams) > 0 {
		out.URL += "?" + req.QueryParams.Encode()
	}

	switch enc {
	case encodingURLFields:
		out.Fields = req.QueryParams
	case encodingJSON:
		if headers[contentTypeHeader] == mimeJSONPatch && !isSequence(req.Body) {
			headers[contentTypeHeader] = mimeStrategicMergePatch
		}
		if !isNil(req.Body) {
			data, err := json.Marshal(req.Body)
			if err != nil {
				return nil, enc, newTransportError(string(http.KindEncoding) + "\n" + err.Error())
			}
			out.Body = data
		}
	case encodingForm:
		out.Fields = req.PostParams
	case encodingMultipart:
		delete(headers, contentTypeHeader)
		out.Fields = req.PostParams
		out.EncodeMultipart = true
	case encodingRaw:
		out.Body = []byte(req.Body.(string))
	case encodingUnsupported:
		return nil, enc, newTransportError(errPrepareMessage)
	}
	return out, enc, nil
}

// isSequence reports whether body encodes to a JSON array. A JSON Patch
// document is an array of operations; anything else is treated as a
// strategic merge patch.
func isSequence(body any) bool {
	switch b := body.(type) {
	case nil:
		return false
	case json.RawMessage:
		return gjson.ParseBytes(b).IsArray()
	case []byte:
		return false
	}
	switch reflect.ValueOf(body).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}
