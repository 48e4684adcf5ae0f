package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRoute          = errors.New("route not declared")
	ErrUnknownMethod         = errors.New("method not declared for route")
	ErrParamNotAllowed       = errors.New("operation declares no parameters of this kind")
	ErrUnknownParam          = errors.New("parameter not declared")
	ErrBodyNotAllowed        = errors.New("operation declares no request body")
	ErrDuplicateRoute        = errors.New("duplicate route")
	ErrUndeclaredPlaceholder = errors.New("path placeholder has no declared parameter")
	ErrInvalidRoute          = errors.New("invalid route")
)

// BodyKind tells which request body an operation accepts.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyMultipart
)

func (k BodyKind) String() string {
	switch k {
	case BodyNone:
		return "none"
	case BodyJSON:
		return "json"
	case BodyMultipart:
		return "multipart"
	default:
		return fmt.Sprintf("BodyKind(%d)", int(k))
	}
}

func parseBodyKind(s string) (BodyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return BodyNone, nil
	case "json":
		return BodyJSON, nil
	case "multipart", "form", "multipart/form-data":
		return BodyMultipart, nil
	default:
		return BodyNone, fmt.Errorf("unknown body kind %q", s)
	}
}

// Shape is the expected form of a response body for one status code.
// ShapeUnknown is reported for codes an operation does not declare.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeJSON
	ShapeBlob
	ShapeText
)

func (s Shape) String() string {
	switch s {
	case ShapeUnknown:
		return "unknown"
	case ShapeJSON:
		return "json"
	case ShapeBlob:
		return "blob"
	case ShapeText:
		return "text"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

func parseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "application/json":
		return ShapeJSON, nil
	case "blob", "binary", "application/octet-stream":
		return ShapeBlob, nil
	case "text", "text/plain":
		return ShapeText, nil
	default:
		return ShapeUnknown, fmt.Errorf("unknown response shape %q", s)
	}
}

// Operation declares what one method on a route accepts and returns.
// A nil or empty parameter list means the operation takes no parameters
// of that kind.
type Operation struct {
	PathParams []string
	Query      []string
	Headers    []string
	Body       BodyKind
	Responses  map[int]Shape
}

// Route groups the operations served under one path template.
// PathParams declared here apply to every method.
type Route struct {
	Path       string
	PathParams []string
	Methods    map[string]Operation
}

// Inputs lists the names of the inputs an outgoing call supplies. A
// non-nil empty Query means an empty query string is still rendered.
type Inputs struct {
	PathParams []string
	Query      []string
	Headers    []string
	HasBody    bool
	Multipart  bool
}

// Error reports a single mismatch between a call and its declared
// operation.
type Error struct {
	Path   string
	Method string
	Field  string
	Name   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Name != "":
		return fmt.Sprintf("%s %s: %s %q: %v", e.Method, e.Path, e.Field, e.Name, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Field, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
