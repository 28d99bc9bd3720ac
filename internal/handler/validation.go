package handler

import (
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// newValidator returns a validator that understands decimal amounts.
// Decimals are validated through their string form; decimal_gt and
// decimal_gte compare against the tag parameter, decimal_max_scale caps the
// number of fractional digits.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gt", compareDecimal(func(value, bound decimal.Decimal) bool {
		return value.GreaterThan(bound)
	}))
	_ = v.RegisterValidation("decimal_gte", compareDecimal(func(value, bound decimal.Decimal) bool {
		return value.GreaterThanOrEqual(bound)
	}))
	_ = v.RegisterValidation("decimal_max_scale", maxDecimalScale)

	return v
}

func maxDecimalScale(fl validator.FieldLevel) bool {
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	scale, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	// trailing zeros do not count: 10.500 has two decimals
	return value.Equal(value.Truncate(int32(scale)))
}

func compareDecimal(ok func(value, bound decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(value, bound)
	}
}
