// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound HTTP requests using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// Most callers enable it through client.WithThrottle. To wrap a
// transport directly:
//
//	rt, err := throttle.New(
//		throttle.Config{RPS: 10, Burst: 5},
//		http.DefaultTransport,
//		func() *slog.Logger { return slog.Default() },
//	)
//	httpClient := &http.Client{Transport: rt}
//
// When the bucket is empty, requests block until a token becomes
// available or the request context ends. The limiter is shared by every
// request sent through the same RoundTripper.
package throttle
