package http

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
)

// Kind discriminates transport failures.
type Kind string

const (
	KindURL        Kind = "URLError"
	KindDNS        Kind = "DNSError"
	KindConnection Kind = "ConnectionError"
	KindTLS        Kind = "TLSError"
	KindTimeout    Kind = "TimeoutError"
	KindProtocol   Kind = "ProtocolError"
	KindEncoding   Kind = "EncodingError"
	KindUnknown    Kind = "Error"
)

// ErrBodyWithFields is returned when a request carries both a raw body and
// fields.
var ErrBodyWithFields = errors.New("request body cannot be combined with fields")

// Error is returned by PoolManager for every failed request.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FailureKind returns the kind as a string.
func (e *Error) FailureKind() string {
	return string(e.Kind)
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// classify picks the kind of a net/http client error. The order matters:
// TLS and DNS failures are also net.OpErrors.
func classify(err error) Kind {
	var (
		dnsErr      *net.DNSError
		unknownCA   x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		certErr     x509.CertificateInvalidError
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		netErr      net.Error
		opErr       *net.OpError
		urlErr      *url.Error
	)

	switch {
	case errors.As(err, &verifyErr), errors.As(err, &unknownCA),
		errors.As(err, &hostnameErr), errors.As(err, &certErr),
		errors.As(err, &recordErr):
		return KindTLS
	case errors.As(err, &dnsErr):
		return KindDNS
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.As(err, &opErr):
		return KindConnection
	case errors.As(err, &urlErr):
		if urlErr.Op == "parse" {
			return KindURL
		}
		return KindProtocol
	}
	return KindUnknown
}
