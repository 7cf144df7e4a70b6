package web

import "github.com/go-playground/validator/v10"

// GetErrorMsg converts a field validation error into a human readable
// message fragment to be prefixed with the field name.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "min":
		return " must be at least " + fe.Param() + " characters long"
	case "max":
		return " must be less than " + fe.Param()
	case "amount":
		return " must be a valid decimal amount"
	}

	return " is invalid"
}
