package schema

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

type manifest struct {
	Routes []manifestRoute `yaml:"routes"`
}

type manifestRoute struct {
	Path       string                       `yaml:"path"`
	PathParams []string                     `yaml:"path_params"`
	Methods    map[string]manifestOperation `yaml:"methods"`
}

type manifestOperation struct {
	PathParams []string             `yaml:"path_params"`
	Query      []string             `yaml:"query"`
	Headers    []string             `yaml:"headers"`
	Body       string               `yaml:"body"`
	Responses  map[string]yamlShape `yaml:"responses"`
}

type yamlShape Shape

func (s *yamlShape) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	shape, err := parseShape(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	*s = yamlShape(shape)
	return nil
}

// Parse builds a Registry from a YAML or JSON route manifest.
func Parse(data []byte) (*Registry, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	routes := make([]Route, 0, len(m.Routes))
	for _, mr := range m.Routes {
		rt := Route{
			Path:       mr.Path,
			PathParams: mr.PathParams,
			Methods:    make(map[string]Operation, len(mr.Methods)),
		}

		for method, mo := range mr.Methods {
			body, err := parseBodyKind(mo.Body)
			if err != nil {
				return nil, fmt.Errorf("route %s %s: %w", method, mr.Path, err)
			}

			var responses map[int]Shape
			if len(mo.Responses) > 0 {
				responses = make(map[int]Shape, len(mo.Responses))
				for raw, shape := range mo.Responses {
					code, err := strconv.Atoi(raw)
					if err != nil || code < 100 || code > 599 {
						return nil, fmt.Errorf("route %s %s: invalid status code %q", method, mr.Path, raw)
					}
					responses[code] = Shape(shape)
				}
			}

			rt.Methods[method] = Operation{
				PathParams: mo.PathParams,
				Query:      mo.Query,
				Headers:    mo.Headers,
				Body:       body,
				Responses:  responses,
			}
		}

		routes = append(routes, rt)
	}

	reg, err := New(routes...)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	return reg, nil
}
