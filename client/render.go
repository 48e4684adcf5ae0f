package client

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Param is a single named path or query value.
type Param struct {
	Name  string `json:"name" validate:"required"`
	Value any    `json:"value"`
}

// Params is an ordered list of parameters. Rendering follows its order.
type Params []Param

// Pairs builds Params from alternating names and values.
// It panics if given an odd number of arguments.
func Pairs(kv ...any) Params {
	if len(kv)%2 == 1 {
		panic("client.Pairs: odd argument count")
	}

	p := make(Params, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		p = append(p, Param{Name: stringify(kv[i]), Value: kv[i+1]})
	}

	return p
}

// ParamsFromMap builds Params from m, ordered by name.
func ParamsFromMap[V any](m map[string]V) Params {
	if m == nil {
		return nil
	}

	p := make(Params, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		p = append(p, Param{Name: k, Value: m[k]})
	}

	return p
}

// Add appends a parameter.
func (p Params) Add(name string, value any) Params {
	return append(p, Param{Name: name, Value: value})
}

// Names returns the parameter names in order.
// A non-nil empty Params yields a non-nil empty slice.
func (p Params) Names() []string {
	if p == nil {
		return nil
	}

	names := make([]string, len(p))
	for i, param := range p {
		names[i] = param.Name
	}

	return names
}

// RenderPath substitutes params into the path template. For each
// parameter, in order, only the first "{name}" occurrence is replaced.
// Placeholders without a parameter are left as is.
func RenderPath(tmpl string, params Params) string {
	path := tmpl
	for _, p := range params {
		path = strings.Replace(path, "{"+p.Name+"}", stringify(p.Value), 1)
	}

	return path
}

// RenderQuery renders query as "?k1=v1&k2=v2&". Names and values are
// written verbatim, without percent-encoding, and the trailing "&" is
// kept. A nil query renders as the empty string.
func RenderQuery(query Params) string {
	if query == nil {
		return ""
	}

	var b strings.Builder
	b.WriteByte('?')
	for _, p := range query {
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(stringify(p.Value))
		b.WriteByte('&')
	}

	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
