package traprepeat

import (
	"bytes"
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"gridflow/internal/broker"
	"gridflow/internal/model"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
	"gridflow/pkg/logger"
)

const (
	// 每次布设的网格数量：基准价上下各3个
	trapCount  = 6
	trapCenter = 3
	// 建玉存在性判断的容差。触发价和实际成交价之间有滑点，
	// 用±10pip的带宽避免价格在网格边界震荡时重复下单
	positionTolerancePips = 10
	// 订单有效期：7天
	orderTTL = 7 * 24 * time.Hour
)

// TrapRepeatIfDone 在现价周围维持一条自平衡的触价单梯子。
// 单实例只交易一个品种、一个方向，每个网格价位最多挂一张活动订单
type TrapRepeatIfDone struct {
	pair         model.Pair
	mode         mode
	intervalPips int64
	units        int64
	profitPips   int64
	state        *State
}

func New(pair model.Pair, side model.OrderSide, intervalPips, units, profitPips int64) *TrapRepeatIfDone {
	return &TrapRepeatIfDone{
		pair:         pair,
		mode:         modes[side],
		intervalPips: intervalPips,
		units:        units,
		profitPips:   profitPips,
		state:        newState(),
	}
}

// RegisterOrders 执行一轮网格巡检：刷新持仓，计算网格，
// 给还没有覆盖的价位挂新单。每个tick调用一次是安全的（幂等）。
// 单个价位的失败不会中断其余价位，错误聚合后一次性返回
func (t *TrapRepeatIfDone) RegisterOrders(ctx context.Context, b broker.Broker) error {
	// 始终用最新建玉做存在性判断
	if err := b.RefreshPositions(ctx); err != nil {
		return err
	}

	tick := b.Tick()
	value, ok := tick.Values[t.pair.Name]
	if !ok {
		return errors.Newf(ecode.InvalidParamsErr, "tick has no quote for %s", t.pair.Name)
	}

	orders, err := b.Orders(ctx)
	if err != nil {
		return err
	}
	positions := b.Positions()

	base := t.resolveBasePrice(t.mode.refPrice(value))

	var errs error
	for n := int64(0); n < trapCount; n++ {
		price := t.pair.AddPips(base, (n-trapCenter)*t.intervalPips)
		if t.orderExists(price, orders) || t.positionExists(price, positions) {
			continue
		}
		if err := t.registerOrder(ctx, b, price, tick.Timestamp); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (t *TrapRepeatIfDone) State() ([]byte, error) {
	return json.Marshal(t.state)
}

// RestoreState 整体恢复网格状态。data为nil/空/JSON null时保持当前状态：
// 从未tick过的实例持久化的checkpoint列就是NULL，回读后原样传回来
func (t *TrapRepeatIfDone) RestoreState(data []byte) error {
	if len(data) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, ecode.ValidationErr, "cannot decode checkpoint")
	}
	if s.SchemaVersion != stateSchemaVersion {
		return errors.Newf(ecode.ValidationErr, "unsupported checkpoint schema version %d", s.SchemaVersion)
	}
	if s.Orders == nil {
		s.Orders = make(map[string]string)
	}
	t.state = &s
	return nil
}

// 把现价向上取整到trap_interval_pips的整数倍，作为网格基准价。
//
//	例) interval=50pips, pip=0.01 时
//	resolveBasePrice(120.10) -> 120.50
//	resolveBasePrice(120.50) -> 120.50
func (t *TrapRepeatIfDone) resolveBasePrice(current decimal.Decimal) decimal.Decimal {
	interval := decimal.NewFromInt(t.intervalPips)
	return t.pair.PipsOf(current).Div(interval).Ceil().Mul(interval).Mul(t.pair.Pip)
}

// 该价位是否已有本实例登记且仍然存活的订单。
// 订单在券商侧已消失的旧键视为未登记，但这里不做清理
func (t *TrapRepeatIfDone) orderExists(price decimal.Decimal, orders []*model.Order) bool {
	id, ok := t.state.Orders[t.pair.GridKey(price)]
	if !ok {
		return false
	}
	for _, o := range orders {
		if o.InternalID == id {
			return true
		}
	}
	return false
}

// 开仓价落在该价位±10pip内的建玉视为已覆盖，哪怕不是本实例登记的
func (t *TrapRepeatIfDone) positionExists(price decimal.Decimal, positions []*model.Position) bool {
	band := decimal.NewFromInt(positionTolerancePips).Mul(t.pair.Pip)
	for _, p := range positions {
		if p.Pair != t.pair.Name {
			continue
		}
		if p.EntryPrice.Sub(price).Abs().LessThan(band) {
			return true
		}
	}
	return false
}

func (t *TrapRepeatIfDone) registerOrder(ctx context.Context, b broker.Broker,
	price decimal.Decimal, timestamp time.Time) error {

	takeProfit := t.pair.AddPips(price, t.mode.profitSign*t.profitPips)
	gtd := timestamp.Add(orderTTL)
	opts := model.OrderOptions{
		Price:            &price,
		TakeProfitOnFill: &model.TakeProfitDetails{Price: takeProfit},
		TimeInForce:      "GTD",
		GtdTime:          &gtd,
	}

	logger.Info("register trap order",
		logger.Pair("pair", t.pair.Name),
		logger.Pair("side", t.mode.side),
		logger.Pair("price", price.String()),
		logger.Pair("take_profit", takeProfit.String()),
		logger.Pair("gtd_time", gtd))

	result, err := b.PlaceOrder(ctx, t.pair.Name, t.mode.side, t.units, model.MarketIfTouched, opts)
	if err != nil {
		return err
	}
	// 立即成交时没有挂起订单，不登记网格键，
	// 该价位后续由±10pip的建玉判定接管
	if result.OrderOpened != nil {
		t.state.Orders[t.pair.GridKey(price)] = result.OrderOpened.InternalID
	}
	return nil
}
