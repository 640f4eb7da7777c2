package tabula

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrEmptySchema is returned by Define for a schema without fields.
	ErrEmptySchema = errors.New("tabula: schema must have at least one field")
	// ErrDuplicateField is returned by Define when two fields share a name or
	// bind the same component type.
	ErrDuplicateField = errors.New("tabula: duplicate field")
	// ErrUnknownField is returned when row values name a field the schema
	// does not declare as row data.
	ErrUnknownField = errors.New("tabula: unknown field")
	// ErrMissingRequired is returned when row values lack a required field.
	ErrMissingRequired = errors.New("tabula: missing required field")
	// ErrTypeMismatch is returned when a row value does not have the field's
	// type.
	ErrTypeMismatch = errors.New("tabula: field type mismatch")
	// ErrSchemaViolation matches every *SchemaViolation.
	ErrSchemaViolation = errors.New("tabula: schema violation")
)

// SchemaViolation reports that a required field had no cell for a key that
// was expected to qualify for the schema. It means common-key computation and
// per-column mutation went out of sync, either through a race with a
// concurrent remove or through a bug; callers are not expected to recover
// from it.
type SchemaViolation struct {
	Schema string
	Field  string
	Type   reflect.Type
	Key    Key
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("tabula: schema %q: required field %q (%s) has no cell for key %d", e.Schema, e.Field, e.Type, e.Key)
}

// Is makes errors.Is(err, ErrSchemaViolation) hold.
func (e *SchemaViolation) Is(target error) bool {
	return target == ErrSchemaViolation
}
