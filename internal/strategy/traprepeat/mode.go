package traprepeat

import (
	"github.com/shopspring/decimal"

	"gridflow/internal/model"
)

// 交易模式（买/卖）。方向相关的差异都收敛在这个函数表里：
// 参照价取Ask还是Bid，止盈往上加还是往下减
type mode struct {
	side model.OrderSide
	// 当前参照价
	refPrice func(v model.TickValue) decimal.Decimal
	// 止盈pip数的符号
	profitSign int64
}

var modes = map[model.OrderSide]mode{
	model.Buy: {
		side:       model.Buy,
		refPrice:   func(v model.TickValue) decimal.Decimal { return v.Ask },
		profitSign: 1,
	},
	model.Sell: {
		side:       model.Sell,
		refPrice:   func(v model.TickValue) decimal.Decimal { return v.Bid },
		profitSign: -1,
	},
}
