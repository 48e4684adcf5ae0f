package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/adamwoolhether/rester/schema"
)

// maxErrBodySize caps the amount of response body copied into an
// UnexpectedStatusError.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is wrapped alongside [ErrUnexpectedStatusCode] when the
	// server responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrInvalidOperation is returned when an Operation fails validation
	// or does not match the attached route schema.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrMultipartBody is returned when a multipart operation carries a
	// body that is not a Form.
	ErrMultipartBody = errors.New("multipart body must be a client.Form")
	// ErrEncodeBody is returned when the request body cannot be JSON encoded.
	ErrEncodeBody = errors.New("encoding request body")
	// ErrNotJSON is returned when decoding a body that was not resolved as JSON.
	ErrNotJSON = errors.New("response body is not JSON")
	// ErrDuplicateHeader is returned when a header map repeats a name
	// under different case.
	ErrDuplicateHeader = errors.New("header name repeated under different case")
)

// UnexpectedStatusError is returned when a Result's status code is not
// one the caller expected.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// Operation describes a single call. Method and Path are required; all
// other fields are optional. Header names must be unique once
// canonicalized.
type Operation struct {
	Method     string            `json:"method" validate:"required"`
	Path       string            `json:"path" validate:"required"`
	PathParams Params            `json:"path_params" validate:"dive"`
	Query      Params            `json:"query" validate:"dive"`
	Headers    map[string]string `json:"headers" validate:"dive,keys,required,endkeys"`
	// Body is JSON encoded unless Multipart is set, in which case it must
	// be a Form or *Form.
	Body any `json:"body" validate:"-"`
	// Token overrides the client's default token for this call.
	Token     string `json:"-"`
	Multipart bool   `json:"multipart"`
}

// Blob is a binary multipart field.
type Blob struct {
	// FileName defaults to "blob".
	FileName string
	// ContentType defaults to application/octet-stream.
	ContentType string
	Data        []byte
}

// FormField is a single multipart field. Blob takes precedence over Value.
type FormField struct {
	Name  string
	Value string
	Blob  *Blob
}

// Form is an ordered multipart form body.
type Form []FormField

// Add appends a text field.
func (f Form) Add(name, value string) Form {
	return append(f, FormField{Name: name, Value: value})
}

// AddBlob appends a binary field.
func (f Form) AddBlob(name string, b Blob) Form {
	return append(f, FormField{Name: name, Blob: &b})
}

// Kind tags the interpretation chosen for a response body.
type Kind int

const (
	// KindNone means no decoder accepted the body.
	KindNone Kind = iota
	KindJSON
	KindBlob
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindJSON:
		return "json"
	case KindBlob:
		return "blob"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Body is a decoded response body.
type Body struct {
	Kind Kind
	// Raw holds the bytes read from the wire. It is nil for KindNone.
	Raw []byte

	value     any
	useNumber bool
}

// JSONBody returns a KindJSON body holding the parsed value v of raw.
func JSONBody(raw []byte, v any) Body {
	return Body{Kind: KindJSON, Raw: raw, value: v}
}

// BlobBody returns a KindBlob body.
func BlobBody(raw []byte) Body {
	return Body{Kind: KindBlob, Raw: raw}
}

// TextBody returns a KindText body.
func TextBody(raw []byte) Body {
	return Body{Kind: KindText, Raw: raw}
}

// Value returns the body in its decoded form: the parsed JSON value, the
// raw []byte for a blob, a string for text, or nil.
func (b Body) Value() any {
	switch b.Kind {
	case KindJSON:
		return b.value
	case KindBlob:
		return b.Raw
	case KindText:
		return string(b.Raw)
	default:
		return nil
	}
}

// Bytes returns the raw body.
func (b Body) Bytes() []byte {
	return b.Raw
}

// Text returns the body as a string when it was resolved as text.
func (b Body) Text() (string, bool) {
	if b.Kind != KindText {
		return "", false
	}

	return string(b.Raw), true
}

// Decode unmarshals a JSON body into dst.
func (b Body) Decode(dst any) error {
	if b.Kind != KindJSON {
		return fmt.Errorf("%w: kind %s", ErrNotJSON, b.Kind)
	}

	d := json.NewDecoder(bytes.NewReader(trimBOM(b.Raw)))
	if b.useNumber {
		d.UseNumber()
	}

	if err := d.Decode(dst); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	return nil
}

// Result is the outcome of a call that received a response.
type Result struct {
	Code    int
	Headers http.Header
	Body    Body
	// Shape is the response shape declared by the attached schema for
	// Code, or schema.ShapeUnknown.
	Shape schema.Shape
}

// IsSuccess reports whether Code is 2xx.
func (r *Result) IsSuccess() bool {
	return r.Code >= 200 && r.Code < 300
}

// Expect returns an *UnexpectedStatusError unless Code is one of codes.
func (r *Result) Expect(codes ...int) error {
	if slices.Contains(codes, r.Code) {
		return nil
	}

	body := r.Body.Raw
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	err := ErrUnexpectedStatusCode
	if r.Code == http.StatusUnauthorized || r.Code == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: r.Code,
		Body:       string(body),
		Err:        err,
	}
}
