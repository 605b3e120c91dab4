package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/vistahr/stayhub/internal/domain/listing"
)

// BindJSON decodes the request body into out and, on failure, writes the
// 400 itself with a field->message map. An empty body binds to the zero
// payload, mirroring the original API's request.get_json(silent=True).
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	// an empty body decodes to the zero payload, but still has to pass
	// the struct's binding rules
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(out)

		if err == nil {
			return true
		}
	}

	fields := bindErrorFields(err, out)

	if fields == nil {
		RespondBadRequest(ctx, "Invalid request body")
		return false
	}

	RespondValidation(ctx, fields)

	return false
}

func bindErrorFields(err error, out interface{}) listing.FieldErrors {
	rootType := baseStructType(out)

	var validatorErrs validator.ValidationErrors

	if errors.As(err, &validatorErrs) {
		fields := listing.FieldErrors{}

		for _, fe := range validatorErrs {
			fields[jsonFieldName(rootType, fe.Field())] = validationMessage(fe.Tag(), fe.Param())
		}

		return fields
	}

	var typeErr *json.UnmarshalTypeError

	if errors.As(err, &typeErr) {
		field := typeErr.Field

		if field == "" {
			field = "body"
		}

		return listing.FieldErrors{field: "must be of type " + typeErr.Type.String()}
	}

	var syntaxErr *json.SyntaxError

	if errors.As(err, &syntaxErr) {
		return listing.FieldErrors{"body": "invalid JSON syntax"}
	}

	var maxErr *http.MaxBytesError

	if errors.As(err, &maxErr) {
		return listing.FieldErrors{"body": "request body too large"}
	}

	return nil
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonFieldName maps a struct field back to its json tag; payloads here
// are flat, so no nested path handling is needed.
func jsonFieldName(rootType reflect.Type, fieldName string) string {
	if rootType == nil {
		return fieldName
	}

	sf, ok := rootType.FieldByName(fieldName)

	if !ok {
		return fieldName
	}

	tag := sf.Tag.Get("json")

	name, _, _ := strings.Cut(tag, ",")

	if name == "" || name == "-" {
		return fieldName
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return "failed " + rule + " validation (" + param + ")"
		}
		return "failed " + rule + " validation"
	}
}
