package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report field names from json tags so errors match the wire format.
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return val
}

// getValidator returns the shared validator instance.
func getValidator() *validator.Validate {
	return v
}

// isStruct reports whether s is a struct or a pointer to one.
func isStruct(s interface{}) bool {
	t := reflect.TypeOf(s)
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// Struct validates s against its `validate` tags. The returned error lists
// every failing field by its json name.
func Struct(s interface{}) error {
	if s == nil {
		return fmt.Errorf("validation target is nil")
	}
	if !isStruct(s) {
		return fmt.Errorf("validation target is not a struct")
	}

	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var parts []string
	for _, fe := range validationErrs {
		parts = append(parts, fmt.Sprintf("field %s failed on %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
