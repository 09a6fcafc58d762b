// Package validation envuelve go-playground/validator y traduce sus errores a apperr.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"shelter-clinical-records/internal/platform/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// Reportamos el nombre del campo del formulario, no el del struct.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return v
}

// Struct valida s y devuelve el primer error como *apperr.ValidationError.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &apperr.ValidationError{
			Field:     fe.Field(),
			MessageID: "validation." + fe.Tag(),
			Param:     fe.Param(),
		}
	}
	return err
}
