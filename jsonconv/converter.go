// Package jsonconv converts between Go values, JSON text and generic JSON
// elements (the map[string]any / []any trees produced by encoding/json).
package jsonconv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Element is a decoded JSON value: map[string]any, []any, string,
// json.Number, bool or nil. Numbers keep their literal text.
type Element = any

// ErrEmpty is returned when asked to parse an empty document.
var ErrEmpty = errors.New("jsonconv: empty input")

// Converter turns values into JSON and back.
type Converter interface {
	ToString(v any) (string, error)
	FromString(s string, out any) error
	Parse(s string) (Element, error)
	ToElement(v any) (Element, error)
	ElementToString(e Element) (string, error)
	FromElement(e Element, out any) error
}

// Standard is a Converter backed by encoding/json. Indent, when set, is used
// for every string it produces.
type Standard struct {
	Indent string
}

var (
	// Default produces compact output and is shared by the HTTP layer.
	Default Converter = Standard{}
	// Pretty produces indented output.
	Pretty Converter = Standard{Indent: "  "}
)

func (c Standard) marshal(v any) ([]byte, error) {
	if c.Indent != "" {
		return json.MarshalIndent(v, "", c.Indent)
	}
	return json.Marshal(v)
}

// ToString serializes v.
func (c Standard) ToString(v any) (string, error) {
	b, err := c.marshal(v)
	if err != nil {
		return "", fmt.Errorf("jsonconv: marshal %T: %w", v, err)
	}
	return string(b), nil
}

// FromString decodes s into out, which must be a pointer.
func (c Standard) FromString(s string, out any) error {
	if len(bytes.TrimSpace([]byte(s))) == 0 {
		return ErrEmpty
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("jsonconv: unmarshal into %T: %w", out, err)
	}
	return nil
}

// Parse decodes s into a generic element. Numbers become json.Number, so
// re-serializing the element reproduces them exactly.
func (c Standard) Parse(s string) (Element, error) {
	if len(bytes.TrimSpace([]byte(s))) == 0 {
		return nil, ErrEmpty
	}
	return decodeElement([]byte(s))
}

// ToElement converts v to its generic element form by round-tripping through JSON.
func (c Standard) ToElement(v any) (Element, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonconv: marshal %T: %w", v, err)
	}
	return decodeElement(b)
}

// decodeElement decodes exactly one JSON value, rejecting trailing data.
func decodeElement(b []byte) (Element, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var e Element
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("jsonconv: unmarshal element: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("jsonconv: unexpected data after top-level value")
	}
	return e, nil
}

// ElementToString serializes a generic element.
func (c Standard) ElementToString(e Element) (string, error) {
	return c.ToString(e)
}

// FromElement converts a generic element into out, which must be a pointer.
func (c Standard) FromElement(e Element, out any) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("jsonconv: marshal element: %w", err)
	}
	return c.FromString(string(b), out)
}

// ParseObject decodes s and requires the top-level value to be a JSON object.
func ParseObject(c Converter, s string) (map[string]any, error) {
	e, err := c.Parse(s)
	if err != nil {
		return nil, err
	}
	obj, ok := e.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("jsonconv: expected object, got %T", e)
	}
	return obj, nil
}
