package validation

import (
	"reflect"
	"strings"

	"marketplace-backend/internal/pkg/constants"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report wire names ("stayPrice"), not Go names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return constants.IsValidRole(fl.Field().String())
	})
	return v
}

// Fields validates s and returns the wire path of every failing field ("location.lat").
// A nil result means s is valid.
func Fields(s interface{}) []string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"body"}
	}
	out := make([]string, 0, len(verrs))
	seen := map[string]bool{}
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	return out
}

// IsValidEmail checks the address syntax only.
func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
