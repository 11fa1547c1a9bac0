package oanda

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gridflow/internal/model"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

// 协议适配器：内部订单模型 <-> 券商报文，并把异步成交效果还原成OrderResult

const defaultOrderCount = 500

type Adapter struct {
	client    Client
	validator *OrderValidator
	// 返回当前行情，用于给新建玉计算标记价格。可以为nil
	ticker func() model.Tick
}

func NewAdapter(client Client, ticker func() model.Tick) *Adapter {
	return &Adapter{
		client:    client,
		validator: NewOrderValidator(),
		ticker:    ticker,
	}
}

// PlaceOrder 校验并提交订单，把券商的事务响应转换成OrderResult。
// 数量符号约定：买为正，卖为负
func (a *Adapter) PlaceOrder(ctx context.Context, pair string, side model.OrderSide,
	units int64, typ model.OrderType, opts model.OrderOptions) (*model.OrderResult, error) {

	if err := a.validator.Validate(pair, side, units, typ, opts); err != nil {
		return nil, err
	}

	signed := units
	if side == model.Sell {
		signed = -units
	}

	order := map[string]any{
		"instrument": ConvertPairToInstrument(pair),
		"type":       ConvertOrderTypeToWire(typ),
		"units":      strconv.FormatInt(signed, 10),
	}
	for k, v := range ConvertOptionsToWire(opts) {
		order[k] = v
	}

	res, err := a.client.CreateOrder(ctx, map[string]any{"order": order})
	if err != nil {
		return nil, errors.Wrap(err, ecode.BrokerCommunicationErr, "create order failed")
	}
	return a.convertResponseToOrderResult(ctx, res, typ)
}

// ListOrders 查询账户的未成交订单，排除券商内部的止盈/止损/移动止损腿
func (a *Adapter) ListOrders(ctx context.Context, count int, pair string, maxID string) ([]*model.Order, error) {
	if count <= 0 {
		count = defaultOrderCount
	}
	params := map[string]string{"count": strconv.Itoa(count)}
	if pair != "" {
		params["instrument"] = ConvertPairToInstrument(pair)
	}
	if maxID != "" {
		params["maxId"] = maxID
	}

	items, err := a.client.Orders(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, ecode.BrokerCommunicationErr, "list orders failed")
	}

	orders := make([]*model.Order, 0, len(items))
	for _, item := range items {
		if typ, ok := stringField(item, "type"); ok && bracketOrderTypes[typ] {
			continue
		}
		o, err := a.convertResponseToOrder(item, "")
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (a *Adapter) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	res, err := a.client.Order(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, ecode.BrokerCommunicationErr, "get order %s failed", id)
	}
	item, ok := mapField(res, "order")
	if !ok {
		item = res
	}
	return a.convertResponseToOrder(item, "")
}

// ModifyOrder 修改订单。未指定的字段沿用当前值，并按当前类型重新校验
func (a *Adapter) ModifyOrder(ctx context.Context, id string, opts model.OrderOptions) (*model.Order, error) {
	current, err := a.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if opts.Price == nil {
		opts.Price = current.Price
	}
	if opts.TimeInForce == "" {
		opts.TimeInForce = current.TimeInForce
	}
	if opts.GtdTime == nil {
		opts.GtdTime = current.GtdTime
	}
	if err := a.validator.Validate(current.Pair, current.Side, current.Units, current.Type, opts); err != nil {
		return nil, err
	}

	signed := current.Units
	if current.Side == model.Sell {
		signed = -signed
	}
	order := map[string]any{
		"instrument": ConvertPairToInstrument(current.Pair),
		"type":       ConvertOrderTypeToWire(current.Type),
		"units":      strconv.FormatInt(signed, 10),
	}
	for k, v := range ConvertOptionsToWire(opts) {
		order[k] = v
	}

	res, err := a.client.UpdateOrder(ctx, id, map[string]any{"order": order})
	if err != nil {
		return nil, errors.Wrapf(err, ecode.BrokerCommunicationErr, "modify order %s failed", id)
	}
	if tx, ok := mapField(res, "orderCreateTransaction"); ok {
		return a.convertResponseToOrder(tx, current.Type)
	}
	return current, nil
}

// CancelOrder 撤单，返回撤销前的订单
func (a *Adapter) CancelOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := a.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := a.client.CancelOrder(ctx, id); err != nil {
		return nil, errors.Wrapf(err, ecode.BrokerCommunicationErr, "cancel order %s failed", id)
	}
	return order, nil
}

// OpenTrades 当前未平仓建玉
func (a *Adapter) OpenTrades(ctx context.Context) ([]*model.Position, error) {
	items, err := a.client.OpenTrades(ctx)
	if err != nil {
		return nil, errors.Wrap(err, ecode.BrokerCommunicationErr, "list open trades failed")
	}
	positions := make([]*model.Position, 0, len(items))
	for _, item := range items {
		p, err := a.convertResponseToPosition(item)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// 一次提交的响应只有两种解释：开了未成交订单，或立即成交产生建玉效果
func (a *Adapter) convertResponseToOrderResult(ctx context.Context, res map[string]any,
	typ model.OrderType) (*model.OrderResult, error) {

	result := &model.OrderResult{}

	fill, hasFill := mapField(res, "orderFillTransaction")
	if !hasFill {
		if tx, ok := mapField(res, "orderCreateTransaction"); ok {
			o, err := a.convertResponseToOrder(tx, typ)
			if err != nil {
				return nil, err
			}
			result.OrderOpened = o
		}
		return result, nil
	}

	fillTime, _ := timeField(fill, "time")

	if opened, ok := mapField(fill, "tradeOpened"); ok {
		id, _ := stringField(opened, "tradeID")
		pos, err := a.retrieveTrade(ctx, id)
		if err != nil {
			return nil, err
		}
		if a.ticker != nil {
			pos.UpdatePrice(a.ticker())
		}
		result.TradeOpened = pos
	}
	if reduced, ok := mapField(fill, "tradeReduced"); ok {
		rp, err := convertResponseToReducedPosition(reduced, fillTime)
		if err != nil {
			return nil, err
		}
		result.TradeReduced = rp
	}
	if closed, ok := sliceField(fill, "tradesClosed"); ok {
		for _, c := range closed {
			detail, ok := c.(map[string]any)
			if !ok {
				continue
			}
			cp, err := convertResponseToClosedPosition(detail, fillTime)
			if err != nil {
				return nil, err
			}
			result.TradesClosed = append(result.TradesClosed, cp)
		}
	}
	return result, nil
}

func (a *Adapter) retrieveTrade(ctx context.Context, id string) (*model.Position, error) {
	res, err := a.client.Trade(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, ecode.BrokerCommunicationErr, "get trade %s failed", id)
	}
	item, ok := mapField(res, "trade")
	if !ok {
		item = res
	}
	return a.convertResponseToPosition(item)
}

func (a *Adapter) convertResponseToOrder(res map[string]any, typ model.OrderType) (*model.Order, error) {
	order := &model.Order{}

	if instrument, ok := stringField(res, "instrument"); ok {
		order.Pair = ConvertInstrumentToPair(instrument)
	}
	if id, ok := stringField(res, "id"); ok {
		order.InternalID = id
	}
	if typ != "" {
		order.Type = typ
	} else if w, ok := stringField(res, "type"); ok {
		order.Type = ConvertOrderTypeFromWire(w)
	}

	units, err := unitsField(res, "units")
	if err != nil {
		return nil, err
	}
	order.Side = model.SideOfUnits(units)
	if units < 0 {
		units = -units
	}
	order.Units = units

	if t, ok := timeField(res, "time"); ok {
		order.CreatedAt = t
	} else if t, ok := timeField(res, "createTime"); ok {
		order.CreatedAt = t
	}

	opts, err := ConvertOptionsFromWire(res)
	if err != nil {
		return nil, err
	}
	order.OrderOptions = opts
	return order, nil
}

func (a *Adapter) convertResponseToPosition(res map[string]any) (*model.Position, error) {
	pos := &model.Position{}
	if id, ok := stringField(res, "id"); ok {
		pos.InternalID = id
	}
	if instrument, ok := stringField(res, "instrument"); ok {
		pos.Pair = ConvertInstrumentToPair(instrument)
	}
	units, err := unitsField(res, "currentUnits")
	if err != nil {
		return nil, err
	}
	if units == 0 {
		if units, err = unitsField(res, "initialUnits"); err != nil {
			return nil, err
		}
	}
	pos.Side = model.SideOfUnits(units)
	if units < 0 {
		units = -units
	}
	pos.Units = units

	if s, ok := stringField(res, "price"); ok {
		p, err := model.ParsePrice(s)
		if err != nil {
			return nil, err
		}
		pos.EntryPrice = p
	}
	if t, ok := timeField(res, "openTime"); ok {
		pos.EnteredAt = t
	}
	return pos, nil
}

// 减仓事件。券商不返回该事件的盈亏，这里保持为空，由上层按需估算
func convertResponseToReducedPosition(detail map[string]any, at time.Time) (*model.ReducedPosition, error) {
	units, err := unitsField(detail, "units")
	if err != nil {
		return nil, err
	}
	if units < 0 {
		units = -units
	}
	rp := &model.ReducedPosition{Units: units, ClosedAt: at}
	if id, ok := stringField(detail, "tradeID"); ok {
		rp.InternalID = id
	}
	if s, ok := stringField(detail, "price"); ok {
		p, err := model.ParsePrice(s)
		if err != nil {
			return nil, err
		}
		rp.Price = p
	}
	return rp, nil
}

// 平仓事件。同样拿不到券商侧盈亏
func convertResponseToClosedPosition(detail map[string]any, at time.Time) (*model.ClosedPosition, error) {
	units, err := unitsField(detail, "units")
	if err != nil {
		return nil, err
	}
	if units < 0 {
		units = -units
	}
	cp := &model.ClosedPosition{Units: units, ClosedAt: at}
	if id, ok := stringField(detail, "tradeID"); ok {
		cp.InternalID = id
	}
	if s, ok := stringField(detail, "price"); ok {
		p, err := model.ParsePrice(s)
		if err != nil {
			return nil, err
		}
		cp.Price = p
	}
	return cp, nil
}

// 带符号数量字段。报文里可能是字符串也可能是数字
func unitsField(m map[string]any, key string) (int64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			// "100.0" 之类的带小数形式
			f, ferr := strconv.ParseFloat(n, 64)
			if ferr != nil {
				return 0, errors.Wrapf(err, ecode.BrokerCommunicationErr, "cannot parse units %q", n)
			}
			return int64(f), nil
		}
		return i, nil
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, errors.Newf(ecode.BrokerCommunicationErr, "unexpected units type %T", v)
	}
}

func timeField(m map[string]any, key string) (time.Time, bool) {
	s, ok := stringField(m, key)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(wireTimeFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
