package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"strings"
)

const (
	defaultBlobName = "blob"
	contentTypeBlob = "application/octet-stream"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeBody returns the request payload, or a nil reader when op has no
// body. For multipart bodies it also returns the boundary-bearing
// Content-Type.
func encodeBody(op Operation) (io.Reader, string, error) {
	if !hasBody(op.Body) {
		return nil, "", nil
	}

	if op.Multipart {
		form, ok := asForm(op.Body)
		if !ok {
			return nil, "", fmt.Errorf("%w: got %T", ErrMultipartBody, op.Body)
		}

		return encodeForm(form)
	}

	b, err := json.Marshal(op.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrEncodeBody, err)
	}

	return bytes.NewReader(b), "", nil
}

// hasBody reports whether v carries a body. Nil pointers, maps, slices
// and interfaces stored in v count as absent.
func hasBody(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

func asForm(body any) (Form, bool) {
	switch f := body.(type) {
	case Form:
		return f, true
	case *Form:
		if f == nil {
			return nil, true
		}
		return *f, true
	default:
		return nil, false
	}
}

func encodeForm(form Form) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range form {
		if field.Blob == nil {
			if err := w.WriteField(field.Name, field.Value); err != nil {
				return nil, "", fmt.Errorf("writing form field %q: %w", field.Name, err)
			}
			continue
		}

		fileName := field.Blob.FileName
		if fileName == "" {
			fileName = defaultBlobName
		}
		contentType := field.Blob.ContentType
		if contentType == "" {
			contentType = contentTypeBlob
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field.Name), quoteEscaper.Replace(fileName)))
		header.Set(headerContentType, contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("creating form part %q: %w", field.Name, err)
		}
		if _, err := part.Write(field.Blob.Data); err != nil {
			return nil, "", fmt.Errorf("writing form part %q: %w", field.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
