package exchange

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gridflow/internal/broker"
	"gridflow/internal/model"
)

// 模拟券商会话。订单全部挂起不成交，测试可以通过钩子改写行为
type SimulatedBroker struct {
	mu        sync.Mutex
	tick      model.Tick
	orders    []*model.Order
	positions []*model.Position

	// 测试钩子：返回非nil时替代默认的挂单行为
	FillHook func(order *model.Order) *model.OrderResult
	// 测试钩子：下单失败注入
	PlaceErr error
}

var _ broker.Session = (*SimulatedBroker)(nil)

func NewSimulatedBroker() *SimulatedBroker {
	return &SimulatedBroker{}
}

func (s *SimulatedBroker) UpdateTick(tick model.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = tick
}

func (s *SimulatedBroker) Tick() model.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

func (s *SimulatedBroker) RefreshPositions(ctx context.Context) error {
	return nil
}

func (s *SimulatedBroker) Orders(ctx context.Context) ([]*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

func (s *SimulatedBroker) Positions() []*model.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Position, len(s.positions))
	copy(out, s.positions)
	return out
}

// AddPosition 预置建玉（测试用）
func (s *SimulatedBroker) AddPosition(p *model.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = append(s.positions, p)
}

// RemoveOrder 模拟订单在券商侧消失（成交或过期）
func (s *SimulatedBroker) RemoveOrder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.orders[:0]
	for _, o := range s.orders {
		if o.InternalID != id {
			kept = append(kept, o)
		}
	}
	s.orders = kept
}

func (s *SimulatedBroker) PlaceOrder(ctx context.Context, pair string, side model.OrderSide,
	units int64, typ model.OrderType, opts model.OrderOptions) (*model.OrderResult, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.PlaceErr != nil {
		return nil, s.PlaceErr
	}

	order := &model.Order{
		Pair:         pair,
		InternalID:   uuid.NewString(),
		Side:         side,
		Type:         typ,
		CreatedAt:    s.tick.Timestamp,
		Units:        units,
		OrderOptions: opts,
	}

	if s.FillHook != nil {
		if result := s.FillHook(order); result != nil {
			if result.OrderOpened != nil {
				s.orders = append(s.orders, result.OrderOpened)
			}
			if result.TradeOpened != nil {
				s.positions = append(s.positions, result.TradeOpened)
			}
			return result, nil
		}
	}

	s.orders = append(s.orders, order)
	return &model.OrderResult{OrderOpened: order}, nil
}
