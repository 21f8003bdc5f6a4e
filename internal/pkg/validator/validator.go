package validator

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"admetrics/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Same tag gin binds with, so services and handlers share one rule set.
	validate.SetTagName("binding")
	registerCustom(validate)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustom(v)
	}
}

func registerCustom(v *validator.Validate) {
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return domain.ValidGender(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
	_ = v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		return IsDay(fl.Field().String())
	})
}

// fieldName reports fields by their wire name: json, then form, then Go name.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// Validate checks v against its binding tags.
func Validate(v interface{}) map[string]string {
	return Fields(validate.Struct(v))
}

// Fields turns a validation or binding error into a field -> failed rule map.
// Errors that are not about a field (malformed JSON) land under "_".
func Fields(err error) map[string]string {
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// IsDay reports whether s is a calendar day in YYYY-MM-DD form.
func IsDay(s string) bool {
	_, err := time.Parse(domain.DayLayout, s)
	return err == nil
}
