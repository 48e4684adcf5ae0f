package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"
)

var (
	errEmptyBody    = errors.New("empty body")
	errTrailingData = errors.New("trailing data after JSON value")
	errInvalidUTF8  = errors.New("body is not valid UTF-8")
)

// Payload is a response body read into memory, along with any error hit
// while reading it.
type Payload struct {
	Data   []byte
	Header http.Header
	Err    error
}

// Decoder interprets a Payload. Returning an error passes the payload on
// to the next decoder in the chain.
type Decoder interface {
	Decode(p Payload) (Body, error)
}

// DecoderFunc adapts a function to a Decoder.
type DecoderFunc func(p Payload) (Body, error)

func (f DecoderFunc) Decode(p Payload) (Body, error) {
	return f(p)
}

// JSONDecoder parses the payload as a single JSON value. With useNumber,
// numbers decode as json.Number.
func JSONDecoder(useNumber bool) Decoder {
	return DecoderFunc(func(p Payload) (Body, error) {
		if p.Err != nil {
			return Body{}, p.Err
		}
		data := trimBOM(p.Data)
		if len(bytes.TrimSpace(data)) == 0 {
			return Body{}, errEmptyBody
		}

		d := json.NewDecoder(bytes.NewReader(data))
		if useNumber {
			d.UseNumber()
		}

		var v any
		if err := d.Decode(&v); err != nil {
			return Body{}, err
		}
		if _, err := d.Token(); !errors.Is(err, io.EOF) {
			return Body{}, errTrailingData
		}

		body := JSONBody(p.Data, v)
		body.useNumber = useNumber

		return body, nil
	})
}

var utf8BOM = []byte("\xef\xbb\xbf")

func trimBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, utf8BOM)
}

// BlobDecoder accepts any fully read payload as raw bytes.
func BlobDecoder() Decoder {
	return DecoderFunc(func(p Payload) (Body, error) {
		if p.Err != nil {
			return Body{}, p.Err
		}

		return BlobBody(p.Data), nil
	})
}

// TextDecoder accepts any fully read, valid UTF-8 payload as text.
func TextDecoder() Decoder {
	return DecoderFunc(func(p Payload) (Body, error) {
		if p.Err != nil {
			return Body{}, p.Err
		}
		if !utf8.Valid(p.Data) {
			return Body{}, errInvalidUTF8
		}

		return TextBody(p.Data), nil
	})
}

// DefaultDecoders returns the standard chain: JSON, then blob, then text.
func DefaultDecoders(useNumber bool) []Decoder {
	return []Decoder{JSONDecoder(useNumber), BlobDecoder(), TextDecoder()}
}

// resolveBody tries each decoder in order and keeps the first success.
// When every decoder fails the body is KindNone.
func resolveBody(p Payload, decoders []Decoder) Body {
	for _, d := range decoders {
		body, err := d.Decode(p)
		if err == nil {
			return body
		}
	}

	return Body{Kind: KindNone}
}
