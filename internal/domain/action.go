package domain

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

type ActionType string

const (
	ActionDiscount     ActionType = "DISCOUNT"
	ActionStatusChange ActionType = "STATUS_CHANGE"
)

var hundred = decimal.NewFromInt(100)

// Action is a decoded rule action. Exactly one payload is set for the known
// types; Err holds the decode failure for malformed parameters, in which case
// the action is skipped at execution time.
type Action struct {
	ID           int64
	Type         ActionType
	Discount     *DiscountParams
	StatusChange *StatusChangeParams
	Params       map[string]any
	Err          error
}

type DiscountParams struct {
	Percentage  decimal.Decimal `mapstructure:"percentage"`
	Description string          `mapstructure:"description"`
}

type StatusChangeParams struct {
	NewStatus string `mapstructure:"new_status"`
}

// NewAction decodes params into the payload for actionType. It never fails:
// decode problems are recorded on Action.Err.
func NewAction(id int64, actionType ActionType, params map[string]any) Action {
	a := Action{ID: id, Type: actionType, Params: params}
	switch actionType {
	case ActionDiscount:
		var p DiscountParams
		if err := decodeParams(params, &p); err != nil {
			a.Err = fmt.Errorf("%w: %s: %v", ErrInvalidActionParams, actionType, err)
			return a
		}
		if p.Percentage.GreaterThan(hundred) {
			a.Err = fmt.Errorf("%w: %s: percentage %s out of range", ErrInvalidActionParams, actionType, p.Percentage)
			return a
		}
		a.Discount = &p
	case ActionStatusChange:
		var p StatusChangeParams
		if err := decodeParams(params, &p); err != nil {
			a.Err = fmt.Errorf("%w: %s: %v", ErrInvalidActionParams, actionType, err)
			return a
		}
		a.StatusChange = &p
	}
	return a
}

// Apply computes the discount on total. A non-positive percentage yields no discount.
func (p DiscountParams) Apply(total decimal.Decimal) (*DiscountResult, bool) {
	if !p.Percentage.IsPositive() {
		return nil, false
	}
	amount := total.Mul(p.Percentage).Div(hundred).RoundBank(2)
	return &DiscountResult{
		Percentage:     p.Percentage,
		DiscountAmount: amount,
		Description:    p.Description,
		FinalTotal:     total.Sub(amount),
		OriginalTotal:  total,
	}, true
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decimalHook,
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		return decimal.NewFromString(v)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case decimal.Decimal:
		return v, nil
	}
	return nil, fmt.Errorf("cannot use %T as a decimal", data)
}
