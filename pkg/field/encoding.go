package field

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Encode returns the persisted form of the field: a float64 for constants,
// the source string for expressions.
func (f Field) Encode() (any, error) {
	switch f.form {
	case formConstant:
		return f.value, nil
	case formExpression:
		return f.src, nil
	default:
		return nil, ErrOpaque
	}
}

// Decode builds a field from its persisted form (a number or expression source).
func Decode(raw any) (Field, error) {
	switch v := raw.(type) {
	case nil:
		return Zero(), nil
	case Field:
		return v, nil
	case float64:
		return Constant(v), nil
	case float32:
		return Constant(float64(v)), nil
	case int:
		return Constant(float64(v)), nil
	case int64:
		return Constant(float64(v)), nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return Field{}, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		}
		return Constant(n), nil
	case string:
		return Parse(v)
	default:
		return Field{}, fmt.Errorf("%w: unsupported field value %T", ErrInvalidExpression, raw)
	}
}

// MarshalJSON implements json.Marshaler.
func (f Field) MarshalJSON() ([]byte, error) {
	v, err := f.Encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Decode(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (f Field) MarshalYAML() (any, error) {
	return f.Encode()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := Decode(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
