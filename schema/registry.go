package schema

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Registry is an immutable lookup table from (path, method) to Operation.
type Registry struct {
	routes map[string]map[string]Operation
}

// New builds a Registry from the given routes. Methods are normalized to
// upper case and route-level path parameters are folded into each
// operation. Every placeholder in a path template must be covered by a
// declared path parameter.
func New(routes ...Route) (*Registry, error) {
	reg := Registry{
		routes: make(map[string]map[string]Operation, len(routes)),
	}

	for _, rt := range routes {
		if rt.Path == "" {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidRoute)
		}
		if _, exists := reg.routes[rt.Path]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, rt.Path)
		}
		if len(rt.Methods) == 0 {
			return nil, fmt.Errorf("%w: %s declares no methods", ErrInvalidRoute, rt.Path)
		}

		placeholders := placeholder.FindAllStringSubmatch(rt.Path, -1)

		methods := make(map[string]Operation, len(rt.Methods))
		for method, op := range rt.Methods {
			method = strings.ToUpper(strings.TrimSpace(method))
			if method == "" {
				return nil, fmt.Errorf("%w: %s has an empty method", ErrInvalidRoute, rt.Path)
			}
			if _, exists := methods[method]; exists {
				return nil, fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, rt.Path)
			}

			op = op.clone()
			op.PathParams = mergeNames(rt.PathParams, op.PathParams)

			for _, m := range placeholders {
				if !slices.Contains(op.PathParams, m[1]) {
					return nil, &Error{Path: rt.Path, Method: method, Field: "path", Name: m[1], Err: ErrUndeclaredPlaceholder}
				}
			}

			methods[method] = op
		}

		reg.routes[rt.Path] = methods
	}

	return &reg, nil
}

// Lookup returns the operation declared for path and method.
func (r *Registry) Lookup(path, method string) (Operation, bool) {
	if r == nil {
		return Operation{}, false
	}

	methods, ok := r.routes[path]
	if !ok {
		return Operation{}, false
	}

	op, ok := methods[strings.ToUpper(method)]
	if !ok {
		return Operation{}, false
	}

	return op.clone(), true
}

// Paths returns the declared path templates in sorted order.
func (r *Registry) Paths() []string {
	if r == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(r.routes))
}

// ResponseShape reports the shape declared for code, or ShapeUnknown when
// the route, the method or the code is not declared.
func (r *Registry) ResponseShape(path, method string, code int) Shape {
	op, ok := r.Lookup(path, method)
	if !ok {
		return ShapeUnknown
	}

	return op.Responses[code]
}

// Check verifies that in only uses inputs the operation declares. All
// mismatches are reported, joined; each one is an *Error.
func (r *Registry) Check(path, method string, in Inputs) error {
	method = strings.ToUpper(method)

	if r == nil {
		return &Error{Path: path, Method: method, Err: ErrUnknownRoute}
	}

	methods, ok := r.routes[path]
	if !ok {
		return &Error{Path: path, Method: method, Err: ErrUnknownRoute}
	}

	op, ok := methods[method]
	if !ok {
		return &Error{Path: path, Method: method, Err: ErrUnknownMethod}
	}

	var errs []error
	errs = append(errs, checkNames(path, method, "path", op.PathParams, in.PathParams, identity)...)
	if in.Query != nil && len(in.Query) == 0 && len(op.Query) == 0 {
		errs = append(errs, &Error{Path: path, Method: method, Field: "query", Err: ErrParamNotAllowed})
	}
	errs = append(errs, checkNames(path, method, "query", op.Query, in.Query, identity)...)
	errs = append(errs, checkNames(path, method, "header", op.Headers, in.Headers, http.CanonicalHeaderKey)...)

	if in.HasBody && !in.Multipart && op.Body == BodyNone {
		errs = append(errs, &Error{Path: path, Method: method, Field: "body", Err: ErrBodyNotAllowed})
	}

	return errors.Join(errs...)
}

func checkNames(path, method, field string, declared, supplied []string, norm func(string) string) []error {
	if len(supplied) == 0 {
		return nil
	}

	if len(declared) == 0 {
		return []error{&Error{Path: path, Method: method, Field: field, Err: ErrParamNotAllowed}}
	}

	allowed := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		allowed[norm(name)] = struct{}{}
	}

	var errs []error
	for _, name := range supplied {
		if _, ok := allowed[norm(name)]; !ok {
			errs = append(errs, &Error{Path: path, Method: method, Field: field, Name: name, Err: ErrUnknownParam})
		}
	}

	return errs
}

func identity(s string) string { return s }

func mergeNames(base, extra []string) []string {
	out := slices.Clone(base)
	for _, name := range extra {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}

	return out
}

func (op Operation) clone() Operation {
	op.PathParams = slices.Clone(op.PathParams)
	op.Query = slices.Clone(op.Query)
	op.Headers = slices.Clone(op.Headers)
	op.Responses = maps.Clone(op.Responses)

	return op
}
