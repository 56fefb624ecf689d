// Package http provides the pooled transport used beneath the REST client.
//
// It wraps the standard library's http package with:
//   - A shared, size-bounded connection pool
//   - TLS verification against the system roots plus an optional CA bundle
//   - URL, form and multipart encoding of request fields
//   - Fully buffered responses
//   - Failure kinds on every returned error
//
// Redirects are never followed and no request timeout is applied.
package http
