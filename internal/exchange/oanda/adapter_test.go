package oanda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gridflow/internal/model"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

// 桩客户端，记录请求并返回预设响应
type fakeClient struct {
	createBody   map[string]any
	createRes    map[string]any
	createErr    error
	ordersParams map[string]string
	ordersRes    []map[string]any
	orderRes     map[string]any
	updateBody   map[string]any
	updateRes    map[string]any
	cancelCalled bool
	tradesRes    []map[string]any
	tradeRes     map[string]any
}

func (f *fakeClient) CreateOrder(ctx context.Context, body map[string]any) (map[string]any, error) {
	f.createBody = body
	return f.createRes, f.createErr
}

func (f *fakeClient) Orders(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	f.ordersParams = params
	return f.ordersRes, nil
}

func (f *fakeClient) Order(ctx context.Context, id string) (map[string]any, error) {
	return f.orderRes, nil
}

func (f *fakeClient) UpdateOrder(ctx context.Context, id string, body map[string]any) (map[string]any, error) {
	f.updateBody = body
	return f.updateRes, nil
}

func (f *fakeClient) CancelOrder(ctx context.Context, id string) (map[string]any, error) {
	f.cancelCalled = true
	return map[string]any{}, nil
}

func (f *fakeClient) OpenTrades(ctx context.Context) ([]map[string]any, error) {
	return f.tradesRes, nil
}

func (f *fakeClient) Trade(ctx context.Context, id string) (map[string]any, error) {
	return f.tradeRes, nil
}

func TestPlaceOrderSignConvention(t *testing.T) {
	client := &fakeClient{
		createRes: map[string]any{
			"orderCreateTransaction": map[string]any{
				"id":         "o1",
				"instrument": "USD_JPY",
				"units":      "10",
				"price":      "120.50",
				"time":       "2026-01-05T09:00:00.000000000Z",
			},
		},
	}
	a := NewAdapter(client, nil)
	price := decimal.RequireFromString("120.50")

	// 买入为正数量
	_, err := a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 10,
		model.MarketIfTouched, model.OrderOptions{Price: &price})
	if err != nil {
		t.Fatal(err)
	}
	order := client.createBody["order"].(map[string]any)
	if order["units"] != "10" {
		t.Errorf("buy units = %v, want 10", order["units"])
	}
	if order["instrument"] != "USD_JPY" {
		t.Errorf("instrument = %v", order["instrument"])
	}
	if order["type"] != "MARKET_IF_TOUCHED" {
		t.Errorf("type = %v", order["type"])
	}

	// 卖出为负数量
	_, err = a.PlaceOrder(context.Background(), "USDJPY", model.Sell, 10,
		model.MarketIfTouched, model.OrderOptions{Price: &price})
	if err != nil {
		t.Fatal(err)
	}
	order = client.createBody["order"].(map[string]any)
	if order["units"] != "-10" {
		t.Errorf("sell units = %v, want -10", order["units"])
	}
}

// 提交后未成交：响应只有orderCreateTransaction
func TestPlaceOrderOpened(t *testing.T) {
	client := &fakeClient{
		createRes: map[string]any{
			"orderCreateTransaction": map[string]any{
				"id":         "o1",
				"instrument": "USD_JPY",
				"units":      "10",
				"price":      "120.50",
				"time":       "2026-01-05T09:00:00.000000000Z",
			},
		},
	}
	a := NewAdapter(client, nil)
	price := decimal.RequireFromString("120.50")

	result, err := a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 10,
		model.MarketIfTouched, model.OrderOptions{Price: &price})
	if err != nil {
		t.Fatal(err)
	}
	if result.OrderOpened == nil {
		t.Fatal("expected OrderOpened")
	}
	if result.TradeOpened != nil {
		t.Error("no fill expected")
	}
	o := result.OrderOpened
	if o.InternalID != "o1" || o.Pair != "USDJPY" || o.Side != model.Buy || o.Units != 10 {
		t.Errorf("unexpected order: %+v", o)
	}
	// 订单类型沿用提交时的类型
	if o.Type != model.MarketIfTouched {
		t.Errorf("type = %s", o.Type)
	}
}

// 立即成交：orderFillTransaction.tradeOpened，回查建玉并补标记价格
func TestPlaceOrderImmediateFill(t *testing.T) {
	client := &fakeClient{
		createRes: map[string]any{
			"orderFillTransaction": map[string]any{
				"time":        "2026-01-05T09:00:00.000000000Z",
				"tradeOpened": map[string]any{"tradeID": "t9"},
			},
		},
		tradeRes: map[string]any{
			"trade": map[string]any{
				"id":           "t9",
				"instrument":   "USD_JPY",
				"currentUnits": "10",
				"price":        "120.10",
				"openTime":     "2026-01-05T09:00:00.000000000Z",
			},
		},
	}
	tick := model.Tick{
		Timestamp: time.Now(),
		Values: map[string]model.TickValue{
			"USDJPY": {
				Bid: decimal.RequireFromString("120.30"),
				Ask: decimal.RequireFromString("120.32"),
			},
		},
	}
	a := NewAdapter(client, func() model.Tick { return tick })

	result, err := a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 10,
		model.Market, model.OrderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if result.OrderOpened != nil {
		t.Error("filled order must not appear as opened")
	}
	pos := result.TradeOpened
	if pos == nil {
		t.Fatal("expected TradeOpened")
	}
	if pos.InternalID != "t9" || pos.Pair != "USDJPY" || pos.Side != model.Buy || pos.Units != 10 {
		t.Errorf("unexpected position: %+v", pos)
	}
	if !pos.EntryPrice.Equal(decimal.RequireFromString("120.10")) {
		t.Errorf("entry price = %s", pos.EntryPrice)
	}
	// 买方标记价取Bid
	if !pos.CurrentPrice.Equal(decimal.RequireFromString("120.30")) {
		t.Errorf("current price = %s", pos.CurrentPrice)
	}
	// 浮动盈亏 = (120.30-120.10)*10
	if !pos.ProfitOrLoss.Equal(decimal.RequireFromString("2.0")) {
		t.Errorf("profit = %s", pos.ProfitOrLoss)
	}
}

// 减仓与平仓事件：券商不披露盈亏，保持为空
func TestPlaceOrderReduceAndClose(t *testing.T) {
	client := &fakeClient{
		createRes: map[string]any{
			"orderFillTransaction": map[string]any{
				"time": "2026-01-05T09:00:00.000000000Z",
				"tradeReduced": map[string]any{
					"tradeID": "t1", "units": "-5", "price": "120.20",
				},
				"tradesClosed": []any{
					map[string]any{"tradeID": "t2", "units": "-10", "price": "120.20"},
					map[string]any{"tradeID": "t3", "units": "-3", "price": "120.20"},
				},
			},
		},
	}
	a := NewAdapter(client, nil)

	result, err := a.PlaceOrder(context.Background(), "USDJPY", model.Sell, 18,
		model.Market, model.OrderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rp := result.TradeReduced
	if rp == nil || rp.InternalID != "t1" || rp.Units != 5 {
		t.Fatalf("unexpected reduced: %+v", rp)
	}
	if rp.ProfitOrLoss != nil {
		t.Error("broker does not disclose P&L, must stay nil")
	}
	if len(result.TradesClosed) != 2 {
		t.Fatalf("expected 2 closed trades, got %d", len(result.TradesClosed))
	}
	if result.TradesClosed[0].InternalID != "t2" || result.TradesClosed[0].Units != 10 {
		t.Errorf("unexpected closed: %+v", result.TradesClosed[0])
	}
	wantTime := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	if !result.TradesClosed[0].ClosedAt.Equal(wantTime) {
		t.Errorf("closedAt = %v", result.TradesClosed[0].ClosedAt)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	a := NewAdapter(&fakeClient{}, nil)
	price := decimal.RequireFromString("120.50")

	// 触价单缺少触发价
	_, err := a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 10,
		model.MarketIfTouched, model.OrderOptions{})
	if !errors.IsCode(err, ecode.ValidationErr) {
		t.Errorf("expected ValidationErr, got %v", err)
	}

	// 市价单不允许触发价
	_, err = a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 10,
		model.Market, model.OrderOptions{Price: &price})
	if !errors.IsCode(err, ecode.ValidationErr) {
		t.Errorf("expected ValidationErr, got %v", err)
	}

	// GTD缺少过期时间
	_, err = a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 10,
		model.MarketIfTouched, model.OrderOptions{Price: &price, TimeInForce: "GTD"})
	if !errors.IsCode(err, ecode.ValidationErr) {
		t.Errorf("expected ValidationErr, got %v", err)
	}

	// 数量必须为正
	_, err = a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 0,
		model.MarketIfTouched, model.OrderOptions{Price: &price})
	if !errors.IsCode(err, ecode.ValidationErr) {
		t.Errorf("expected ValidationErr, got %v", err)
	}
}

func TestPlaceOrderCommunicationError(t *testing.T) {
	client := &fakeClient{createErr: fmt.Errorf("connection refused")}
	a := NewAdapter(client, nil)
	price := decimal.RequireFromString("120.50")

	_, err := a.PlaceOrder(context.Background(), "USDJPY", model.Buy, 10,
		model.MarketIfTouched, model.OrderOptions{Price: &price})
	if !errors.IsCode(err, ecode.BrokerCommunicationErr) {
		t.Errorf("expected BrokerCommunicationErr, got %v", err)
	}
}

// 止盈/止损/移动止损腿不作为顶层订单返回
func TestListOrdersFiltersBracketLegs(t *testing.T) {
	client := &fakeClient{
		ordersRes: []map[string]any{
			{"id": "o1", "type": "MARKET_IF_TOUCHED", "instrument": "USD_JPY", "units": "10", "price": "120.50"},
			{"id": "o2", "type": "TAKE_PROFIT", "instrument": "USD_JPY", "units": "-10", "price": "121.50"},
			{"id": "o3", "type": "STOP_LOSS", "instrument": "USD_JPY", "units": "-10", "price": "119.50"},
			{"id": "o4", "type": "TRAILING_STOP_LOSS", "instrument": "USD_JPY", "units": "-10"},
			{"id": "o5", "type": "LIMIT", "instrument": "EUR_USD", "units": "-20", "price": "1.1000"},
		},
	}
	a := NewAdapter(client, nil)

	orders, err := a.ListOrders(context.Background(), 0, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].InternalID != "o1" || orders[1].InternalID != "o5" {
		t.Errorf("unexpected orders: %s %s", orders[0].InternalID, orders[1].InternalID)
	}
	if orders[1].Side != model.Sell || orders[1].Units != 20 {
		t.Errorf("unexpected order: %+v", orders[1])
	}

	// 默认查询数量
	if client.ordersParams["count"] != "500" {
		t.Errorf("count = %s, want 500", client.ordersParams["count"])
	}
}

func TestModifyOrderMergesDefaults(t *testing.T) {
	gtd := "2026-01-12T09:00:00.000000000Z"
	client := &fakeClient{
		orderRes: map[string]any{
			"order": map[string]any{
				"id":          "o1",
				"type":        "MARKET_IF_TOUCHED",
				"instrument":  "USD_JPY",
				"units":       "10",
				"price":       "120.50",
				"timeInForce": "GTD",
				"gtdTime":     gtd,
			},
		},
		updateRes: map[string]any{
			"orderCreateTransaction": map[string]any{
				"id":          "o1",
				"instrument":  "USD_JPY",
				"units":       "10",
				"price":       "120.80",
				"timeInForce": "GTD",
				"gtdTime":     gtd,
			},
		},
	}
	a := NewAdapter(client, nil)

	newPrice := decimal.RequireFromString("120.80")
	modified, err := a.ModifyOrder(context.Background(), "o1", model.OrderOptions{Price: &newPrice})
	if err != nil {
		t.Fatal(err)
	}
	order := client.updateBody["order"].(map[string]any)
	if order["price"] != "120.8" {
		t.Errorf("price = %v", order["price"])
	}
	// 未指定的字段沿用当前值
	if order["timeInForce"] != "GTD" {
		t.Errorf("timeInForce = %v", order["timeInForce"])
	}
	if order["gtdTime"] == nil {
		t.Error("gtdTime must be carried over")
	}
	if !modified.Price.Equal(newPrice) {
		t.Errorf("modified price = %v", modified.Price)
	}
}

func TestCancelOrderReturnsPrior(t *testing.T) {
	client := &fakeClient{
		orderRes: map[string]any{
			"order": map[string]any{
				"id": "o1", "type": "MARKET_IF_TOUCHED", "instrument": "USD_JPY",
				"units": "10", "price": "120.50",
			},
		},
	}
	a := NewAdapter(client, nil)

	order, err := a.CancelOrder(context.Background(), "o1")
	if err != nil {
		t.Fatal(err)
	}
	if !client.cancelCalled {
		t.Error("cancel not invoked")
	}
	if order.InternalID != "o1" || !order.Price.Equal(decimal.RequireFromString("120.50")) {
		t.Errorf("unexpected order: %+v", order)
	}
}

func TestOpenTrades(t *testing.T) {
	client := &fakeClient{
		tradesRes: []map[string]any{
			{
				"id": "t1", "instrument": "USD_JPY", "currentUnits": "10",
				"price": "120.10", "openTime": "2026-01-05T09:00:00.000000000Z",
			},
			{
				"id": "t2", "instrument": "EUR_USD", "currentUnits": "-20",
				"price": "1.1000", "openTime": "2026-01-05T10:00:00.000000000Z",
			},
		},
	}
	a := NewAdapter(client, nil)

	positions, err := a.OpenTrades(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].Side != model.Buy || positions[0].Units != 10 {
		t.Errorf("unexpected position: %+v", positions[0])
	}
	if positions[1].Side != model.Sell || positions[1].Units != 20 || positions[1].Pair != "EURUSD" {
		t.Errorf("unexpected position: %+v", positions[1])
	}
}
