package handler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewValidator_DecimalTags(t *testing.T) {
	type amounts struct {
		Principal decimal.Decimal `validate:"decimal_gt=0,decimal_max_scale=2"`
		Rate      decimal.Decimal `validate:"decimal_gte=0"`
	}

	tests := []struct {
		name      string
		principal string
		rate      string
		valid     bool
	}{
		{name: "whole amount", principal: "1000", rate: "0", valid: true},
		{name: "cents", principal: "1000.05", rate: "4.125", valid: true},
		{name: "trailing zeros beyond cents", principal: "10.500", rate: "1", valid: true},
		{name: "sub-cent principal", principal: "1000.005", rate: "1", valid: false},
		{name: "zero principal", principal: "0", rate: "1", valid: false},
		{name: "negative rate", principal: "1", rate: "-0.01", valid: false},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(amounts{
				Principal: decimal.RequireFromString(tt.principal),
				Rate:      decimal.RequireFromString(tt.rate),
			})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
