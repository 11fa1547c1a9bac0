package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 持仓（建玉）。由券商响应转换而来
type Position struct {
	InternalID   string          `json:"internal_id"`
	Pair         string          `json:"pair"`
	Side         OrderSide       `json:"side"`
	Units        int64           `json:"units"`
	EntryPrice   decimal.Decimal `json:"entry_price"`
	EnteredAt    time.Time       `json:"entered_at"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	// 估算的浮动盈亏。仅供展示，结算以券商为准
	ProfitOrLoss decimal.Decimal `json:"profit_or_loss"`
}

// UpdatePrice 按最新tick更新标记价格和估算盈亏
func (p *Position) UpdatePrice(tick Tick) {
	v, ok := tick.Values[p.Pair]
	if !ok {
		return
	}
	units := decimal.NewFromInt(p.Units)
	if p.Side == Sell {
		// 卖方平仓要买回，用Ask
		p.CurrentPrice = v.Ask
		p.ProfitOrLoss = p.EntryPrice.Sub(v.Ask).Mul(units)
		return
	}
	p.CurrentPrice = v.Bid
	p.ProfitOrLoss = v.Bid.Sub(p.EntryPrice).Mul(units)
}

// 部分平仓事件。券商不返回该事件的盈亏，只携带其披露的字段
type ReducedPosition struct {
	InternalID string          `json:"internal_id"`
	Units      int64           `json:"units"`
	Price      decimal.Decimal `json:"price"`
	ClosedAt   time.Time       `json:"closed_at"`
	// 本地估算值，可能为nil
	ProfitOrLoss *decimal.Decimal `json:"profit_or_loss,omitempty"`
}

// 全部平仓事件
type ClosedPosition struct {
	InternalID string          `json:"internal_id"`
	Units      int64           `json:"units"`
	Price      decimal.Decimal `json:"price"`
	ClosedAt   time.Time       `json:"closed_at"`
	// 本地估算值，可能为nil
	ProfitOrLoss *decimal.Decimal `json:"profit_or_loss,omitempty"`
}
