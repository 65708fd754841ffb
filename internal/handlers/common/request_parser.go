package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// BindError is returned by BindJSON. The body was too large (TooLarge),
// was not valid JSON (Malformed), held a value of the wrong JSON type for a
// field (TypeField, TypeWant), or decoded but failed the validate tags.
type BindError struct {
	Malformed bool
	TooLarge  bool
	TypeField string
	TypeWant  string
	Fields    []FieldError
	cause     error
}

func (e *BindError) Error() string {
	switch {
	case e.TooLarge:
		return fmt.Sprintf("request body too large: %v", e.cause)
	case e.TypeField != "":
		return fmt.Sprintf("%s must be %s", e.TypeField, e.TypeWant)
	case e.Malformed:
		return fmt.Sprintf("malformed JSON body: %v", e.cause)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+":"+f.Tag)
	}
	return "validation failed: " + strings.Join(parts, ",")
}

func (e *BindError) Unwrap() error { return e.cause }

// HasTag reports whether any field failed with the given tag.
func (e *BindError) HasTag(tag string) bool {
	for _, f := range e.Fields {
		if f.Tag == tag {
			return true
		}
	}
	return false
}

// BindJSON decodes the body into dst with gin's binding (which runs the
// go-playground validator) and converts failures into a BindError.
func BindJSON(c *gin.Context, dst any) *BindError {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		be := &BindError{cause: err}
		for _, fe := range verrs {
			be.Fields = append(be.Fields, FieldError{Field: jsonFieldName(fe), Tag: fe.Tag(), Param: fe.Param()})
		}
		return be
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &BindError{TooLarge: true, cause: err}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &BindError{Malformed: true, TypeField: typeErr.Field, TypeWant: jsonTypeName(typeErr.Type), cause: err}
	}
	// syntax errors and an empty body
	return &BindError{Malformed: true, cause: err}
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Map, reflect.Struct:
		return "an object"
	}
	return "a valid value"
}

// jsonFieldName lowercases the first rune of the struct field so messages
// match the wire names (wordCount rather than WordCount).
func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
