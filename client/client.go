package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/rester/client/throttle"
	"github.com/adamwoolhether/rester/schema"
)

// DefaultAuthScheme is the Authorization scheme used unless overridden
// with WithAuthScheme.
const DefaultAuthScheme = "Bearer"

// Config is the immutable configuration of a Client.
type Config struct {
	BaseURL        string            `json:"base_url" validate:"required,url"`
	AuthScheme     string            `json:"auth_scheme" validate:"required"`
	DefaultToken   string            `json:"-"`
	DefaultHeaders map[string]string `json:"default_headers" validate:"dive,keys,required,endkeys"`
}

// Client renders operations against a base URL and dispatches them with
// the wrapped std-lib *http.Client. It is safe for concurrent use.
type Client struct {
	c               *http.Client
	logger          *slog.Logger
	tracer          trace.Tracer
	cfg             Config
	schema          *schema.Registry
	decoders        []Decoder
	propagate       bool
	requestIDHeader string
}

// Build creates a Client for baseURL, which is prepended verbatim to
// every rendered path.
func Build(baseURL string, optFns ...Option) (*Client, error) {
	opts := options{
		authScheme: DefaultAuthScheme,
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	cfg := Config{
		BaseURL:        baseURL,
		AuthScheme:     opts.authScheme,
		DefaultToken:   opts.token,
		DefaultHeaders: opts.headers,
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := checkHeaderNames(cfg.DefaultHeaders); err != nil {
		return nil, fmt.Errorf("validating config: default headers: %w", err)
	}

	client := &Client{
		c:               &http.Client{},
		logger:          slog.Default(),
		tracer:          noop.NewTracerProvider().Tracer("no-op tracer"),
		cfg:             cfg,
		schema:          opts.schema,
		decoders:        opts.decoders,
		propagate:       opts.propagate,
		requestIDHeader: opts.requestIDHeader,
	}

	if opts.client != nil {
		hc := *opts.client
		client.c = &hc
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if client.decoders == nil {
		client.decoders = DefaultDecoders(opts.useJSONNum)
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollow {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.New(*opts.throttle, transport, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.DefaultHeaders = maps.Clone(c.cfg.DefaultHeaders)
	return cfg
}

// Request renders op, sends it, and resolves the response. A nil error
// guarantees a fully populated Result, whatever its status code. Errors
// are returned only for invalid operations, unencodable bodies and
// transport failures; the latter wrap the transport's error.
func (c *Client) Request(ctx context.Context, op Operation) (*Result, error) {
	requestID := uuid.New().String()

	ctx, span := c.startSpan(ctx, op, requestID)
	defer span.End()

	req, err := c.resolve(ctx, op, requestID)
	if err != nil {
		spanFailed(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("url.full", req.URL.String()))

	res, err := c.dispatch(req, op, requestID)
	if err != nil {
		spanFailed(span, err)
		return nil, err
	}
	spanResult(span, res)

	return res, nil
}

// Resolve renders op into the *http.Request that Request would send,
// without sending it.
func (c *Client) Resolve(ctx context.Context, op Operation) (*http.Request, error) {
	return c.resolve(ctx, op, uuid.New().String())
}

func (c *Client) resolve(ctx context.Context, op Operation, requestID string) (*http.Request, error) {
	if err := c.check(op); err != nil {
		return nil, err
	}

	target := c.cfg.BaseURL + RenderPath(op.Path, op.PathParams) + RenderQuery(op.Query)

	body, formType, err := encodeBody(op)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(op.Method), target, body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	req.Header = c.mergeHeaders(op, requestID)
	if formType != "" && req.Header.Get(headerContentType) == "" {
		req.Header.Set(headerContentType, formType)
	}

	if c.propagate {
		otel.GetTextMapPropagator().Inject(ctx, absentCarrier{propagation.HeaderCarrier(req.Header)})
	}

	return req, nil
}

// check validates op and, when a registry is attached, matches it against
// the declared route.
func (c *Client) check(op Operation) error {
	if err := Validate(op); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}

	if err := checkHeaderNames(op.Headers); err != nil {
		return fmt.Errorf("%w: headers: %w", ErrInvalidOperation, err)
	}

	if op.Multipart && hasBody(op.Body) {
		if _, ok := asForm(op.Body); !ok {
			return fmt.Errorf("%w: %w: got %T", ErrInvalidOperation, ErrMultipartBody, op.Body)
		}
	}

	if c.schema == nil {
		return nil
	}

	in := schema.Inputs{
		PathParams: op.PathParams.Names(),
		Query:      op.Query.Names(),
		Headers:    headerNames(op.Headers),
		HasBody:    hasBody(op.Body),
		Multipart:  op.Multipart,
	}
	if err := c.schema.Check(op.Path, op.Method, in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}

	return nil
}

// dispatch sends req exactly once and resolves the response body.
func (c *Client) dispatch(req *http.Request, op Operation, requestID string) (*Result, error) {
	log := c.logger.With("request_id", requestID, "method", req.Method, "url", req.URL.String())
	log.Debug("request dispatched")

	start := time.Now()
	resp, err := c.c.Do(req)
	if err != nil {
		log.Debug("request failed", "error", err, "took", time.Since(start).String())
		return nil, fmt.Errorf("exec http do: %w", err)
	}
	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "request_id", requestID, "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "request_id", requestID, "error", err)
		}
	}()

	data, readErr := io.ReadAll(resp.Body)
	payload := Payload{Data: data, Header: resp.Header, Err: readErr}

	res := Result{
		Code:    resp.StatusCode,
		Headers: resp.Header,
		Body:    resolveBody(payload, c.decoders),
	}

	if c.schema != nil {
		res.Shape = c.schema.ResponseShape(op.Path, op.Method, resp.StatusCode)
		if res.Shape == schema.ShapeUnknown && readErr == nil {
			res.Body = BlobBody(data)
		}
	}

	log.Debug("request complete", "status", res.Code, "body_kind", res.Body.Kind.String(), "took", time.Since(start).String())

	return &res, nil
}

func headerNames(h map[string]string) []string {
	if len(h) == 0 {
		return nil
	}

	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}

	return names
}
