package broker

import (
	"context"

	"gridflow/internal/model"
)

// Broker 是策略侧看到的券商能力，按策略实际用到的方法集定义。
// 具体实现可以是实盘适配器，也可以是测试替身
type Broker interface {
	// 当前行情快照
	Tick() model.Tick
	// 刷新持仓缓存，之后Positions返回最新建玉
	RefreshPositions(ctx context.Context) error
	// 当前未成交订单列表
	Orders(ctx context.Context) ([]*model.Order, error)
	// 最近一次RefreshPositions拿到的持仓
	Positions() []*model.Position
	// 下单
	PlaceOrder(ctx context.Context, pair string, side model.OrderSide, units int64,
		typ model.OrderType, opts model.OrderOptions) (*model.OrderResult, error)
}

// TickReceiver 由行情从外部推送的Broker实现
type TickReceiver interface {
	UpdateTick(tick model.Tick)
}

// Session 是运行时持有的完整券商会话
type Session interface {
	Broker
	TickReceiver
}
