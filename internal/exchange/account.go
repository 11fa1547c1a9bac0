package exchange

import (
	"context"
	"sync"

	"gridflow/internal/broker"
	"gridflow/internal/exchange/oanda"
	"gridflow/internal/model"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

// Account 是实盘券商会话：协议适配器之上的Broker门面。
// 行情由运行时在每个tick推送进来，持仓缓存按需刷新
type Account struct {
	adapter *oanda.Adapter
	pairs   map[string]model.Pair

	mu        sync.RWMutex
	tick      model.Tick
	positions []*model.Position
}

var _ broker.Session = (*Account)(nil)

func NewAccount(client oanda.Client, pairs []model.Pair) *Account {
	a := &Account{
		pairs: make(map[string]model.Pair, len(pairs)),
	}
	for _, p := range pairs {
		a.pairs[p.Name] = p
	}
	a.adapter = a.newAdapter(client)
	return a
}

func (a *Account) newAdapter(client oanda.Client) *oanda.Adapter {
	return oanda.NewAdapter(client, a.Tick)
}

func (a *Account) UpdateTick(tick model.Tick) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tick = tick
}

func (a *Account) Tick() model.Tick {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tick
}

// RefreshPositions 从券商拉取最新建玉并按当前行情更新标记价格
func (a *Account) RefreshPositions(ctx context.Context) error {
	positions, err := a.adapter.OpenTrades(ctx)
	if err != nil {
		return err
	}
	tick := a.Tick()
	for _, p := range positions {
		p.UpdatePrice(tick)
	}
	a.mu.Lock()
	a.positions = positions
	a.mu.Unlock()
	return nil
}

func (a *Account) Positions() []*model.Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*model.Position, len(a.positions))
	copy(out, a.positions)
	return out
}

func (a *Account) Orders(ctx context.Context) ([]*model.Order, error) {
	return a.adapter.ListOrders(ctx, 0, "", "")
}

func (a *Account) PlaceOrder(ctx context.Context, pair string, side model.OrderSide,
	units int64, typ model.OrderType, opts model.OrderOptions) (*model.OrderResult, error) {
	if _, ok := a.pairs[pair]; !ok {
		return nil, errors.Newf(ecode.ValidationErr, "pair not configured: %s", pair)
	}
	return a.adapter.PlaceOrder(ctx, pair, side, units, typ, opts)
}

// Adapter 暴露底层适配器，供需要改单/撤单的调用方使用
func (a *Account) Adapter() *oanda.Adapter {
	return a.adapter
}
