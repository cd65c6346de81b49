package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks v's validate tags. The first violation is reported as a
// ConfigError whose Field is section.<yaml name>.
func Validate(section string, v interface{}) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dserrors.ConfigError{Field: section, Message: err.Error()}
	}

	fe := verrs[0]
	field := fe.Field()
	if section != "" {
		field = section + "." + field
	}
	return dserrors.ConfigError{
		Field:      field,
		Message:    describe(fe),
		Suggestion: fmt.Sprintf("Set %s in secretsadapter.yaml or via %s", fe.Field(), envHint(section, fe.Field())),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url", "http_url":
		return "must be a valid URL"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func envHint(section, field string) string {
	providerType := strings.TrimPrefix(section, "providers.")
	return EnvPrefix(providerType) + "_" + strings.ToUpper(field)
}
