package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mrz1836/cadence/internal/errors"
)

//nolint:gochecknoglobals // validator caches struct metadata; one instance is shared
var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their config key, not their Go name.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks every field rule and returns all violations at once as a
// *errors.ValidationErrors, which unwraps to errors.ErrConfigInvalid.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.Wrap(err, "failed to validate configuration")
	}

	var ve errors.ValidationErrors
	for _, fe := range fieldErrs {
		ve.Add(fieldPath(fe), ruleMessage(fe))
	}
	return ve.OrNil()
}

// RequireRole reports ErrNoRole when no role name is configured. Commands that
// run ticks call it; read-only commands do not need a role.
func (c *Config) RequireRole() error {
	if strings.TrimSpace(c.Role.Name) == "" {
		return errors.ErrNoRole
	}
	return nil
}

// fieldPath turns "Config.queue.max_size" into "queue.max_size".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "required", "required_if":
		return "is required"
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
