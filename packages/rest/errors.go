package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chinazhenzhen/Storm-Bringer/packages/http"
)

var (
	// ErrUnsupportedMethod is returned for a method outside the Verb set.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
	// ErrBodyWithPostParams is returned when a request has both a body and
	// post params.
	ErrBodyWithPostParams = errors.New("body parameter cannot be used with post_params parameter")
)

const errPrepareMessage = "Cannot prepare a request message for provided arguments. " +
	"Please check that your arguments match declared content type."

// ApiError is the single failure type for transport errors (Status 0) and
// non-2xx responses. Body and Headers are only set when a response was
// received and are copies of it.
type ApiError struct {
	Status  int
	Reason  string
	Body    []byte
	Headers http.Header
}

func newTransportError(reason string) *ApiError {
	return &ApiError{Status: 0, Reason: reason}
}

// failureError reports err with its kind on the first line.
func failureError(err error) *ApiError {
	return newTransportError(failureKind(err) + "\n" + err.Error())
}

func newResponseError(resp *http.Response) *ApiError {
	e := &ApiError{
		Status:  resp.StatusCode,
		Reason:  resp.Reason,
		Headers: resp.Headers.Clone(),
	}
	if resp.Body != nil {
		e.Body = append([]byte{}, resp.Body...)
	}
	return e
}

func (e *ApiError) Error() string {
	lines := []string{
		fmt.Sprintf("(%d)", e.Status),
		"Reason: " + e.Reason,
	}
	if len(e.Headers) > 0 {
		lines = append(lines, fmt.Sprintf("HTTP response headers: %v", e.Headers))
	}
	if len(e.Body) > 0 {
		lines = append(lines, "HTTP response body: "+string(e.Body))
	}
	return strings.Join(lines, "\n")
}

// IsTransport reports whether no HTTP response was received.
func (e *ApiError) IsTransport() bool {
	return e.Status == 0
}

// StatusCode returns the HTTP status, 0 for transport failures.
func (e *ApiError) StatusCode() int {
	return e.Status
}

// kinded is implemented by errors that know their failure kind, such as
// *http.Error.
type kinded interface {
	FailureKind() string
}

func failureKind(err error) string {
	var k kinded
	if errors.As(err, &k) && k.FailureKind() != "" {
		return k.FailureKind()
	}
	return string(http.KindUnknown)
}
