package oanda

import (
	"github.com/go-playground/validator/v10"

	"gridflow/internal/model"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

// 下单参数校验。校验失败属于ValidationErr，重试同样的输入没有意义

type orderParams struct {
	Pair  string          `validate:"required"`
	Side  model.OrderSide `validate:"required,oneof=buy sell"`
	Units int64           `validate:"required,gt=0"`
	Type  model.OrderType `validate:"required,oneof=market limit stop marketIfTouched"`
}

type OrderValidator struct {
	v *validator.Validate
}

func NewOrderValidator() *OrderValidator {
	return &OrderValidator{v: validator.New()}
}

func (ov *OrderValidator) Validate(pair string, side model.OrderSide, units int64,
	typ model.OrderType, opts model.OrderOptions) error {

	params := orderParams{Pair: pair, Side: side, Units: units, Type: typ}
	if err := ov.v.Struct(params); err != nil {
		return errors.Wrapf(err, ecode.ValidationErr, "invalid order %s %s %d %s", pair, side, units, typ)
	}

	// 触价/限价/止损单必须带触发价格
	switch typ {
	case model.Limit, model.Stop, model.MarketIfTouched:
		if opts.Price == nil {
			return errors.Newf(ecode.ValidationErr, "%s order requires a price", typ)
		}
	case model.Market:
		if opts.Price != nil {
			return errors.New(ecode.ValidationErr, "market order cannot carry a price")
		}
	}

	if opts.TimeInForce == "GTD" && opts.GtdTime == nil {
		return errors.New(ecode.ValidationErr, "GTD order requires gtd_time")
	}

	if opts.TakeProfitOnFill != nil && !opts.TakeProfitOnFill.Price.IsPositive() {
		return errors.New(ecode.ValidationErr, "take profit price must be positive")
	}

	return nil
}
