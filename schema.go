package apprun

import "github.com/graphkernel/apprun/pkg/schema"

// Schema validates a task's input or result. Adapted directly from the
// teacher's pkg/schema package (StringSchema/NumberSchema/ObjectSchema...),
// which already implements the Validate(value any) (any, error) contract
// the spec's inputSchema/resultSchema need.
type Schema = schema.Schema

// Re-export the teacher's schema constructors so callers building
// inputSchema/resultSchema values don't need a second import for the common
// cases.
var (
	StringSchema = schema.String
	NumberSchema = schema.Number
	BoolSchema   = schema.Boolean
	ArraySchema  = schema.Array
	ObjectSchema = schema.Object
	EnumSchema   = schema.Enum
)

// AnySchema accepts any value, for tasks that declare no input/result shape.
func AnySchema() Schema {
	return schema.Custom(func(v any) (any, error) { return v, nil })
}
