package oanda

import (
	"strings"
	"time"

	"gridflow/internal/model"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

// 内部订单词汇和券商报文字段之间的双向转换

const wireTimeFormat = time.RFC3339Nano

// 内部订单类型 -> 报文订单类型
var orderTypeToWire = map[model.OrderType]string{
	model.Market:          "MARKET",
	model.Limit:           "LIMIT",
	model.Stop:            "STOP",
	model.MarketIfTouched: "MARKET_IF_TOUCHED",
}

var orderTypeFromWire = map[string]model.OrderType{}

// 止盈/止损腿在券商侧是独立订单类型，不作为顶层订单跟踪
var bracketOrderTypes = map[string]bool{
	"TRAILING_STOP_LOSS": true,
	"TAKE_PROFIT":        true,
	"STOP_LOSS":          true,
}

func init() {
	for k, v := range orderTypeToWire {
		orderTypeFromWire[v] = k
	}
}

// ConvertPairToInstrument 品种名 -> 券商instrument。USDJPY -> USD_JPY
func ConvertPairToInstrument(pair string) string {
	if len(pair) <= 3 || strings.Contains(pair, "_") {
		return pair
	}
	return pair[:len(pair)-3] + "_" + pair[len(pair)-3:]
}

// ConvertInstrumentToPair USD_JPY -> USDJPY
func ConvertInstrumentToPair(instrument string) string {
	return strings.ReplaceAll(instrument, "_", "")
}

func ConvertOrderTypeToWire(typ model.OrderType) string {
	if w, ok := orderTypeToWire[typ]; ok {
		return w
	}
	return string(typ)
}

func ConvertOrderTypeFromWire(wire string) model.OrderType {
	if t, ok := orderTypeFromWire[wire]; ok {
		return t
	}
	return model.OrderType(wire)
}

// ConvertOptionsToWire 把内部可选参数转成报文字段。未设置的字段不出现在报文里
func ConvertOptionsToWire(opts model.OrderOptions) map[string]any {
	wire := make(map[string]any)
	if opts.Price != nil {
		wire["price"] = opts.Price.String()
	}
	if opts.TakeProfitOnFill != nil {
		wire["takeProfitOnFill"] = map[string]any{"price": opts.TakeProfitOnFill.Price.String()}
	}
	if opts.StopLossOnFill != nil {
		wire["stopLossOnFill"] = map[string]any{"price": opts.StopLossOnFill.Price.String()}
	}
	if opts.TrailingStopLossOnFill != nil {
		wire["trailingStopLossOnFill"] = map[string]any{"distance": opts.TrailingStopLossOnFill.Distance.String()}
	}
	if opts.TimeInForce != "" {
		wire["timeInForce"] = opts.TimeInForce
	}
	if opts.GtdTime != nil {
		wire["gtdTime"] = opts.GtdTime.UTC().Format(wireTimeFormat)
	}
	if opts.ClientExtensions != nil {
		wire["clientExtensions"] = convertClientExtensionsToWire(opts.ClientExtensions)
	}
	if opts.TradeClientExtensions != nil {
		wire["tradeClientExtensions"] = convertClientExtensionsToWire(opts.TradeClientExtensions)
	}
	if opts.PositionFill != "" {
		wire["positionFill"] = opts.PositionFill
	}
	if opts.TriggerCondition != "" {
		wire["triggerCondition"] = opts.TriggerCondition
	}
	if opts.PriceBound != nil {
		wire["priceBound"] = opts.PriceBound.String()
	}
	return wire
}

func convertClientExtensionsToWire(ext *model.ClientExtensions) map[string]any {
	m := make(map[string]any)
	if ext.ID != "" {
		m["id"] = ext.ID
	}
	if ext.Tag != "" {
		m["tag"] = ext.Tag
	}
	if ext.Comment != "" {
		m["comment"] = ext.Comment
	}
	return m
}

// ConvertOptionsFromWire 从报文字段还原内部可选参数。缺失的字段保持未设置，不报错
func ConvertOptionsFromWire(res map[string]any) (model.OrderOptions, error) {
	var opts model.OrderOptions

	if s, ok := stringField(res, "price"); ok {
		p, err := model.ParsePrice(s)
		if err != nil {
			return opts, err
		}
		opts.Price = &p
	}
	if m, ok := mapField(res, "takeProfitOnFill"); ok {
		if s, ok := stringField(m, "price"); ok {
			p, err := model.ParsePrice(s)
			if err != nil {
				return opts, err
			}
			opts.TakeProfitOnFill = &model.TakeProfitDetails{Price: p}
		}
	}
	if m, ok := mapField(res, "stopLossOnFill"); ok {
		if s, ok := stringField(m, "price"); ok {
			p, err := model.ParsePrice(s)
			if err != nil {
				return opts, err
			}
			opts.StopLossOnFill = &model.StopLossDetails{Price: p}
		}
	}
	if m, ok := mapField(res, "trailingStopLossOnFill"); ok {
		if s, ok := stringField(m, "distance"); ok {
			d, err := model.ParsePrice(s)
			if err != nil {
				return opts, err
			}
			opts.TrailingStopLossOnFill = &model.TrailingStopLossDetails{Distance: d}
		}
	}
	if s, ok := stringField(res, "timeInForce"); ok {
		opts.TimeInForce = s
	}
	if s, ok := stringField(res, "gtdTime"); ok {
		t, err := time.Parse(wireTimeFormat, s)
		if err != nil {
			return opts, errors.Wrapf(err, ecode.BrokerCommunicationErr, "cannot parse gtdTime %q", s)
		}
		opts.GtdTime = &t
	}
	if m, ok := mapField(res, "clientExtensions"); ok {
		opts.ClientExtensions = convertClientExtensionsFromWire(m)
	}
	if m, ok := mapField(res, "tradeClientExtensions"); ok {
		opts.TradeClientExtensions = convertClientExtensionsFromWire(m)
	}
	if s, ok := stringField(res, "positionFill"); ok {
		opts.PositionFill = s
	}
	if s, ok := stringField(res, "triggerCondition"); ok {
		opts.TriggerCondition = s
	}
	if s, ok := stringField(res, "priceBound"); ok {
		p, err := model.ParsePrice(s)
		if err != nil {
			return opts, err
		}
		opts.PriceBound = &p
	}
	return opts, nil
}

func convertClientExtensionsFromWire(m map[string]any) *model.ClientExtensions {
	ext := &model.ClientExtensions{}
	if s, ok := stringField(m, "id"); ok {
		ext.ID = s
	}
	if s, ok := stringField(m, "tag"); ok {
		ext.Tag = s
	}
	if s, ok := stringField(m, "comment"); ok {
		ext.Comment = s
	}
	return ext
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func mapField(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	mm, ok := v.(map[string]any)
	return mm, ok
}

func sliceField(m map[string]any, key string) ([]any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}
