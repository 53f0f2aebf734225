// Package schema provides the lightweight runtime value validators tasks use
// for InputSchema/ResultSchema (spec.md §4.3: "optional input/result schema
// validated before/after run").
package schema

import (
	"fmt"
	"reflect"
	"regexp"
)

// ValidationError reports one failed constraint, with Path identifying where
// in a nested object/array the failure occurred.
type ValidationError struct {
	Message string
	Path    []string
}

func (e *ValidationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s at path %v", e.Message, e.Path)
	}
	return e.Message
}

func prefixPath(err error, segment string) error {
	if ve, ok := err.(*ValidationError); ok {
		ve.Path = append([]string{segment}, ve.Path...)
	}
	return err
}

// Schema validates one value, returning the (possibly coerced) value on
// success.
type Schema interface {
	Validate(value any) (any, error)
}

// StringSchema validates strings, with optional length bounds and a regexp
// pattern.
type StringSchema struct {
	MinLength int
	MaxLength int
	Pattern   string

	compiled *regexp.Regexp
}

// String starts a new string schema.
func String() *StringSchema { return &StringSchema{} }

func (s *StringSchema) Min(n int) *StringSchema { s.MinLength = n; return s }
func (s *StringSchema) Max(n int) *StringSchema { s.MaxLength = n; return s }

// Matches sets the regexp pattern a value must match. The match is an
// unanchored search; a full-string match needs ^ and $ in pattern. Panics on an
// invalid pattern, matching the fail-fast behavior of schema construction
// (schemas are built once, at graph-definition time, not per-request).
func (s *StringSchema) Matches(pattern string) *StringSchema {
	s.Pattern = pattern
	s.compiled = regexp.MustCompile(pattern)
	return s
}

func (s *StringSchema) Validate(value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, &ValidationError{Message: "value is not a string"}
	}
	if s.MinLength > 0 && len(str) < s.MinLength {
		return nil, &ValidationError{Message: fmt.Sprintf("string length %d is less than minimum length %d", len(str), s.MinLength)}
	}
	if s.MaxLength > 0 && len(str) > s.MaxLength {
		return nil, &ValidationError{Message: fmt.Sprintf("string length %d is greater than maximum length %d", len(str), s.MaxLength)}
	}
	if s.Pattern != "" {
		if s.compiled == nil {
			s.compiled = regexp.MustCompile(s.Pattern)
		}
		if !s.compiled.MatchString(str) {
			return nil, &ValidationError{Message: fmt.Sprintf("string %q does not match pattern %s", str, s.Pattern)}
		}
	}
	return str, nil
}

// NumberSchema validates numeric values, accepting any Go numeric kind and
// normalizing the result to float64.
type NumberSchema struct {
	Min      float64
	HasMin   bool
	Max      float64
	HasMax   bool
	Positive bool
	Negative bool
	Integer  bool
}

func Number() *NumberSchema { return &NumberSchema{} }

func (s *NumberSchema) WithMin(n float64) *NumberSchema { s.Min = n; s.HasMin = true; return s }
func (s *NumberSchema) WithMax(n float64) *NumberSchema { s.Max = n; s.HasMax = true; return s }
func (s *NumberSchema) MustBePositive() *NumberSchema    { s.Positive = true; return s }
func (s *NumberSchema) MustBeNegative() *NumberSchema    { s.Negative = true; return s }
func (s *NumberSchema) MustBeInteger() *NumberSchema     { s.Integer = true; return s }

func (s *NumberSchema) Validate(value any) (any, error) {
	num, ok := toFloat64(value)
	if !ok {
		return nil, &ValidationError{Message: "value is not a number"}
	}
	if s.HasMin && num < s.Min {
		return nil, &ValidationError{Message: fmt.Sprintf("number %g is less than minimum %g", num, s.Min)}
	}
	if s.HasMax && num > s.Max {
		return nil, &ValidationError{Message: fmt.Sprintf("number %g is greater than maximum %g", num, s.Max)}
	}
	if s.Positive && num <= 0 {
		return nil, &ValidationError{Message: "number must be positive"}
	}
	if s.Negative && num >= 0 {
		return nil, &ValidationError{Message: "number must be negative"}
	}
	if s.Integer && float64(int64(num)) != num {
		return nil, &ValidationError{Message: "number must be an integer"}
	}
	return num, nil
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// BooleanSchema validates a plain bool.
type BooleanSchema struct{}

func Boolean() *BooleanSchema { return &BooleanSchema{} }

func (s *BooleanSchema) Validate(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, &ValidationError{Message: "value is not a boolean"}
	}
	return b, nil
}

// EnumSchema validates that a value is one of a fixed set of allowed values,
// compared by fmt.Sprintf-formatted equality so it works across comparable
// types without requiring generics at the Schema interface boundary.
type EnumSchema struct {
	Allowed []any
}

// Enum creates a schema accepting only one of allowed.
func Enum(allowed ...any) *EnumSchema { return &EnumSchema{Allowed: allowed} }

func (s *EnumSchema) Validate(value any) (any, error) {
	for _, a := range s.Allowed {
		if fmt.Sprintf("%v", a) == fmt.Sprintf("%v", value) {
			return value, nil
		}
	}
	return nil, &ValidationError{Message: fmt.Sprintf("value %v is not one of %v", value, s.Allowed)}
}

// ArraySchema validates a slice or array, optionally validating each element
// against ItemSchema.
type ArraySchema struct {
	ItemSchema Schema
	MinItems   int
	MaxItems   int
}

func Array(itemSchema Schema) *ArraySchema {
	return &ArraySchema{ItemSchema: itemSchema}
}

func (s *ArraySchema) WithMinItems(n int) *ArraySchema { s.MinItems = n; return s }
func (s *ArraySchema) WithMaxItems(n int) *ArraySchema { s.MaxItems = n; return s }

func (s *ArraySchema) Validate(value any) (any, error) {
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		return nil, &ValidationError{Message: "value is not an array"}
	}
	length := val.Len()
	if s.MinItems > 0 && length < s.MinItems {
		return nil, &ValidationError{Message: fmt.Sprintf("array length %d is less than minimum length %d", length, s.MinItems)}
	}
	if s.MaxItems > 0 && length > s.MaxItems {
		return nil, &ValidationError{Message: fmt.Sprintf("array length %d is greater than maximum length %d", length, s.MaxItems)}
	}
	if s.ItemSchema == nil {
		return value, nil
	}

	result := reflect.MakeSlice(val.Type(), 0, length)
	for i := 0; i < length; i++ {
		validated, err := s.ItemSchema.Validate(val.Index(i).Interface())
		if err != nil {
			return nil, prefixPath(err, fmt.Sprintf("[%d]", i))
		}
		result = reflect.Append(result, reflect.ValueOf(validated))
	}
	return result.Interface(), nil
}

// ObjectSchema validates a map[string]any or struct against a set of named
// property schemas.
type ObjectSchema struct {
	Properties map[string]Schema
	Required   []string
}

func Object(properties map[string]Schema) *ObjectSchema {
	return &ObjectSchema{Properties: properties}
}

func (s *ObjectSchema) WithRequired(fields ...string) *ObjectSchema {
	s.Required = fields
	return s
}

func (s *ObjectSchema) Validate(value any) (any, error) {
	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Map:
		return s.validateMap(val)
	case reflect.Struct:
		return s.validateStruct(val)
	default:
		return nil, &ValidationError{Message: "value is not an object"}
	}
}

func (s *ObjectSchema) validateMap(val reflect.Value) (any, error) {
	result := reflect.MakeMap(val.Type())
	present := make(map[string]bool, val.Len())
	for _, k := range val.MapKeys() {
		present[fmt.Sprintf("%v", k.Interface())] = true
	}
	for _, req := range s.Required {
		if !present[req] {
			return nil, &ValidationError{Message: fmt.Sprintf("required property %s is missing", req)}
		}
	}
	for key, schema := range s.Properties {
		keyVal := reflect.ValueOf(key)
		propVal := val.MapIndex(keyVal)
		if !propVal.IsValid() {
			continue
		}
		validated, err := schema.Validate(propVal.Interface())
		if err != nil {
			return nil, prefixPath(err, key)
		}
		result.SetMapIndex(keyVal, reflect.ValueOf(validated))
	}
	return result.Interface(), nil
}

func (s *ObjectSchema) validateStruct(val reflect.Value) (any, error) {
	for _, req := range s.Required {
		if !val.FieldByName(req).IsValid() {
			return nil, &ValidationError{Message: fmt.Sprintf("required property %s is missing", req)}
		}
	}
	result := reflect.New(val.Type()).Elem()
	result.Set(val)
	for key, schema := range s.Properties {
		field := val.FieldByName(key)
		if !field.IsValid() {
			continue
		}
		validated, err := schema.Validate(field.Interface())
		if err != nil {
			return nil, prefixPath(err, key)
		}
		result.FieldByName(key).Set(reflect.ValueOf(validated))
	}
	return result.Interface(), nil
}

// CustomSchema wraps an arbitrary validation function, for the cases none of
// the built-in shapes cover.
type CustomSchema struct {
	fn func(any) (any, error)
}

// Custom builds a schema from fn directly, dropping the earlier no-op
// CustomSchema that accepted every value unconditionally.
func Custom(fn func(value any) (any, error)) *CustomSchema {
	return &CustomSchema{fn: fn}
}

func (s *CustomSchema) Validate(value any) (any, error) {
	if s.fn == nil {
		return value, nil
	}
	return s.fn(value)
}
