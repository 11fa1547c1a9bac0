package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

type OrderType string

const (
	// 市价单
	Market OrderType = "market"
	// 限价单
	Limit OrderType = "limit"
	// 止损单
	Stop OrderType = "stop"
	// 触价单，市场价格触及指定价格时成交
	MarketIfTouched OrderType = "marketIfTouched"
)

// SideOfUnits 根据带符号的数量推断方向：正数买入，负数卖出
func SideOfUnits(units int64) OrderSide {
	if units < 0 {
		return Sell
	}
	return Buy
}

type TakeProfitDetails struct {
	Price decimal.Decimal `json:"price"`
}

type StopLossDetails struct {
	Price decimal.Decimal `json:"price"`
}

type TrailingStopLossDetails struct {
	Distance decimal.Decimal `json:"distance"`
}

type ClientExtensions struct {
	ID      string `json:"id,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// 下单时的可选参数。字段缺省时保持为nil/零值，不参与报文
type OrderOptions struct {
	Price                  *decimal.Decimal         `json:"price,omitempty"`
	TakeProfitOnFill       *TakeProfitDetails       `json:"take_profit_on_fill,omitempty"`
	StopLossOnFill         *StopLossDetails         `json:"stop_loss_on_fill,omitempty"`
	TrailingStopLossOnFill *TrailingStopLossDetails `json:"trailing_stop_loss_on_fill,omitempty"`
	TimeInForce            string                   `json:"time_in_force,omitempty"`
	GtdTime                *time.Time               `json:"gtd_time,omitempty"`
	ClientExtensions       *ClientExtensions        `json:"client_extensions,omitempty"`
	TradeClientExtensions  *ClientExtensions        `json:"trade_client_extensions,omitempty"`
	PositionFill           string                   `json:"position_fill,omitempty"`
	TriggerCondition       string                   `json:"trigger_condition,omitempty"`
	PriceBound             *decimal.Decimal         `json:"price_bound,omitempty"`
}

// 券商订单。由券商响应转换而来，转换完成后下游只读
type Order struct {
	Pair       string    `json:"pair"`
	InternalID string    `json:"internal_id"` // 券商分配的订单id
	Side       OrderSide `json:"side"`
	Type       OrderType `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
	Units      int64     `json:"units"` // 恒为正，方向看Side

	OrderOptions
}
