package ledgerdelivery

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidAmount validates whether the field is a parseable decimal amount.
// Sign and magnitude checks belong to the service layer; binding only
// rejects strings that are not numbers at all.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	if amount, ok := fl.Field().Interface().(string); ok {
		_, err := decimal.NewFromString(amount)
		return err == nil
	}

	return false
}
