package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Despacho-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores usan el nombre json (o query) del campo, no el del struct.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// validateStruct aplica las etiquetas validate y devuelve el primer campo inválido como ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	return domain.NewValidationError(fe.Field(), ruleMessage(fe))
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "max":
		return "supera el máximo de " + fe.Param()
	case "min":
		return "es menor que el mínimo de " + fe.Param()
	default:
		return "no cumple la regla " + fe.Tag()
	}
}
