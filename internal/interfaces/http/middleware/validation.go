package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// moneyPattern matches a non-negative decimal amount with up to two places
var moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// RegisterValidations installs custom binding rules on gin's validator.
// "money" validates amount strings before they reach decimal parsing.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		return moneyPattern.MatchString(fl.Field().String())
	})
}
