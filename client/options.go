package client

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/rester/client/throttle"
	"github.com/adamwoolhether/rester/schema"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	authScheme      string
	token           string
	headers         map[string]string
	schema          *schema.Registry
	decoders        []Decoder
	useJSONNum      bool
	client          *http.Client
	rt              http.RoundTripper
	timeout         *time.Duration
	userAgent       string
	throttle        *throttle.Config
	noFollow        bool
	logger          *slog.Logger
	tracer          trace.Tracer
	propagate       bool
	requestIDHeader string
}

// WithAuthScheme sets the scheme written before the token in the
// Authorization header. Defaults to "Bearer".
func WithAuthScheme(scheme string) Option {
	return func(o *options) error {
		if scheme == "" {
			return errors.New("auth scheme must not be empty")
		}
		o.authScheme = scheme
		return nil
	}
}

// WithToken sets the default token sent with every request that does not
// carry its own.
func WithToken(token string) Option {
	return func(o *options) error {
		o.token = token
		return nil
	}
}

// WithHeaders sets default headers sent with every request. The map is
// copied.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) error {
		o.headers = maps.Clone(headers)
		return nil
	}
}

// WithSchema attaches a route registry. Operations are checked against it
// before dispatch, and bodies for status codes it does not declare are
// resolved as raw bytes.
func WithSchema(reg *schema.Registry) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("schema registry must not be nil")
		}
		o.schema = reg
		return nil
	}
}

// WithDecoders replaces the response decode chain. Decoders are tried in
// the given order. WithJSONNumber has no effect once this is set.
func WithDecoders(decoders ...Decoder) Option {
	return func(o *options) error {
		if len(decoders) == 0 {
			return errors.New("at least one decoder is required")
		}
		if slices.Contains(decoders, nil) {
			return errors.New("decoder must not be nil")
		}
		o.decoders = slices.Clone(decoders)
		return nil
	}
}

// WithJSONNumber tells the default JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumber() Option {
	return func(o *options) error {
		o.useJSONNum = true
		return nil
	}
}

// WithClient replaces the default [http.Client] used by the [Client].
// The given client is copied, not modified.
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
// The limiter wraps the transport and is off by default. Request itself
// never queues or applies backpressure; only a throttled transport waits
// for a token.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(o *options) error {
		o.noFollow = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer records a span for every request with the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithTracePropagation injects the span context into outgoing headers
// using the global otel propagator. Headers already present are kept.
func WithTracePropagation() Option {
	return func(o *options) error {
		o.propagate = true
		return nil
	}
}

// WithRequestIDHeader sends the per-request ID under the given header.
// Default and per-call headers with the same name take precedence.
func WithRequestIDHeader(name string) Option {
	return func(o *options) error {
		if name == "" {
			return errors.New("request id header name must not be empty")
		}
		o.requestIDHeader = http.CanonicalHeaderKey(name)
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
