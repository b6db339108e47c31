package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the notblank rule and makes validation errors report
// JSON field names. gin shares one validator engine per process.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			if field.Kind() != reflect.String {
				return true
			}
			return strings.TrimSpace(field.String()) != ""
		})
	})
}

// bindingMessage turns a ShouldBindJSON error into a client-facing message.
func bindingMessage(err error) string {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &verrs):
		missing := make([]string, 0, len(verrs))
		invalid := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required", "notblank":
				missing = append(missing, fe.Field())
			default:
				invalid = append(invalid, fe.Field())
			}
		}
		sort.Strings(missing)
		sort.Strings(invalid)
		if len(missing) > 0 {
			return "Missing required field(s): " + strings.Join(missing, ", ")
		}
		return "Invalid field(s): " + strings.Join(invalid, ", ")
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Field %s must be a %s.", typeErr.Field, typeErr.Type.Kind())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "Request body must be valid JSON."
	case errors.Is(err, io.EOF):
		return "Request body is required."
	}
	return "Invalid request body."
}
