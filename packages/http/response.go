package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Header is the response header map.
type Header = http.Header

type Response struct {
	StatusCode int
	Reason     string
	Headers    Header
	Body       []byte
	Duration   time.Duration
}

// reasonPhrase strips the status code from a net/http status line
// ("404 Not Found" -> "Not Found").
func reasonPhrase(code int, status string) string {
	prefix := strconv.Itoa(code)
	if strings.HasPrefix(status, prefix) {
		return strings.TrimSpace(status[len(prefix):])
	}
	if status == "" {
		return http.StatusText(code)
	}
	return status
}

// Get looks up a gjson path in the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
