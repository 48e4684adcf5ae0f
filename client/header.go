package client

import (
	"cmp"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel/propagation"
)

const (
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
)

// mergeHeaders builds the outgoing headers. Layers apply lowest to
// highest precedence, each overwriting keys set by the ones before it:
//
//  1. request ID header, when configured
//  2. client default headers
//  3. per-call headers
//  4. Content-Type: application/json, unless the call is multipart
//  5. Authorization: "<scheme> <token>", when a token is available
func (c *Client) mergeHeaders(op Operation, requestID string) http.Header {
	var base map[string]string
	if c.requestIDHeader != "" {
		base = map[string]string{c.requestIDHeader: requestID}
	}

	automatic := make(map[string]string, 2)
	if !op.Multipart {
		automatic[headerContentType] = contentTypeJSON
	}
	if token := cmp.Or(op.Token, c.cfg.DefaultToken); token != "" {
		automatic[headerAuthorization] = c.cfg.AuthScheme + " " + token
	}

	h := make(http.Header)
	for _, layer := range []map[string]string{base, c.cfg.DefaultHeaders, op.Headers, automatic} {
		for k, v := range layer {
			h.Set(k, v)
		}
	}

	return h
}

// checkHeaderNames rejects a map holding the same header name under
// different case, since http.Header would keep only one of them.
func checkHeaderNames(h map[string]string) error {
	seen := make(map[string]string, len(h))
	for _, k := range slices.Sorted(maps.Keys(h)) {
		canonical := http.CanonicalHeaderKey(k)
		if prev, ok := seen[canonical]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateHeader, prev, k)
		}
		seen[canonical] = k
	}

	return nil
}

// absentCarrier only sets keys the request doesn't already carry, so
// trace propagation never overrides merged headers.
type absentCarrier struct {
	propagation.HeaderCarrier
}

func (c absentCarrier) Set(key, value string) {
	if c.HeaderCarrier.Get(key) != "" {
		return
	}

	c.HeaderCarrier.Set(key, value)
}
