package model

// 一次下单的结果。两种解释互斥：
// 要么订单被接受但未成交（OrderOpened），
// 要么立即成交并产生开仓/减仓/平仓效果
type OrderResult struct {
	OrderOpened  *Order            `json:"order_opened,omitempty"`
	TradeOpened  *Position         `json:"trade_opened,omitempty"`
	TradeReduced *ReducedPosition  `json:"trade_reduced,omitempty"`
	TradesClosed []*ClosedPosition `json:"trades_closed,omitempty"`
}
