package client

import (
	"context"
	"errors"
)

// As decodes the JSON body of r into a T.
func As[T any](r *Result) (T, error) {
	var v T
	if r == nil {
		return v, errors.New("nil result")
	}

	if err := r.Body.Decode(&v); err != nil {
		return v, err
	}

	return v, nil
}

// Expect decodes the JSON body of r into a T if r carries code, and
// returns an *UnexpectedStatusError otherwise.
func Expect[T any](r *Result, code int) (T, error) {
	var v T
	if r == nil {
		return v, errors.New("nil result")
	}

	if err := r.Expect(code); err != nil {
		return v, err
	}

	return As[T](r)
}

// Endpoint binds a method and path template to the type its success
// status code returns.
type Endpoint[T any] struct {
	Method string
	Path   string
	Code   int
}

// Call sends op with the endpoint's method and path. The decoded body is
// returned when the response carries e.Code. Otherwise the error is an
// *UnexpectedStatusError and the Result is still returned for inspection.
// Transport and validation failures return a nil Result.
func (e Endpoint[T]) Call(ctx context.Context, c *Client, op Operation) (T, *Result, error) {
	op.Method = e.Method
	op.Path = e.Path

	var v T
	res, err := c.Request(ctx, op)
	if err != nil {
		return v, nil, err
	}

	v, err = Expect[T](res, e.Code)
	return v, res, err
}
