package utils

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs the validate tags on a request DTO. Returns the
// first field error so handlers can surface one actionable message.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
			return fieldErrors[0]
		}
		return err
	}
	return nil
}
