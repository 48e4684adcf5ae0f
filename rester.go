// Package rester exposes the client builder.
package rester

import (
	"github.com/adamwoolhether/rester/client"
)

// New instantiates a *client.Client for baseURL with the provided options.
// If not specified, a fresh http.Client over http.DefaultTransport is used.
func New(baseURL string, opts ...client.Option) (*client.Client, error) {
	return client.Build(baseURL, opts...)
}
