package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 单个品种的报价
type TickValue struct {
	Bid decimal.Decimal `json:"bid"`
	Ask decimal.Decimal `json:"ask"`
}

// 一次行情快照，按品种名索引
type Tick struct {
	Timestamp time.Time            `json:"timestamp"`
	Values    map[string]TickValue `json:"values"`
}
