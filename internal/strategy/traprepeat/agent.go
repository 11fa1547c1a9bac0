package traprepeat

import (
	"context"

	"github.com/spf13/cast"

	"gridflow/internal/broker"
	"gridflow/internal/model"
	"gridflow/internal/strategy"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

// 策略类名，注册和创建实例时使用
const ClassName = "trap_repeat_if_done"

const (
	defaultIntervalPips = 50
	defaultUnits        = 1
	defaultProfitPips   = 100
	defaultPair         = "USDJPY"
)

// Agent 把网格引擎包装成可注册的策略单元
type Agent struct {
	trap *TrapRepeatIfDone
}

var _ strategy.Strategy = (*Agent)(nil)

func NewAgent() strategy.Strategy {
	return &Agent{}
}

func (a *Agent) Description() string {
	return "在现价上下按固定pip间隔布设触价单的网格策略（trap-repeat-if-done）"
}

func (a *Agent) Properties() []strategy.Property {
	return []strategy.Property{
		{ID: "pair", Name: "交易品种", Default: defaultPair},
		{ID: "sell_or_buy", Name: "交易方向(buy/sell)", Default: string(model.Buy)},
		{ID: "trap_interval_pips", Name: "网格间隔(pips)", Default: defaultIntervalPips},
		{ID: "trade_units", Name: "单笔数量", Default: defaultUnits},
		{ID: "profit_pips", Name: "止盈(pips)", Default: defaultProfitPips},
	}
}

func (a *Agent) PostCreate(config map[string]any, pairs []model.Pair) error {
	pairName := stringProp(config, "pair", defaultPair)
	var pair model.Pair
	found := false
	for _, p := range pairs {
		if p.Name == pairName {
			pair = p
			found = true
			break
		}
	}
	if !found {
		return errors.Newf(ecode.ValidationErr, "unknown pair: %s", pairName)
	}

	side := model.OrderSide(stringProp(config, "sell_or_buy", string(model.Buy)))
	if side != model.Buy && side != model.Sell {
		return errors.Newf(ecode.ValidationErr, "sell_or_buy must be buy or sell: %s", side)
	}

	interval, err := intProp(config, "trap_interval_pips", defaultIntervalPips)
	if err != nil {
		return err
	}
	units, err := intProp(config, "trade_units", defaultUnits)
	if err != nil {
		return err
	}
	profit, err := intProp(config, "profit_pips", defaultProfitPips)
	if err != nil {
		return err
	}
	if interval <= 0 || units <= 0 || profit <= 0 {
		return errors.New(ecode.ValidationErr, "trap_interval_pips/trade_units/profit_pips must be positive")
	}

	a.trap = New(pair, side, interval, units, profit)
	return nil
}

func (a *Agent) NextTick(ctx context.Context, b broker.Broker) error {
	if a.trap == nil {
		return errors.New(ecode.InternalErr, "agent not initialized")
	}
	return a.trap.RegisterOrders(ctx, b)
}

func (a *Agent) State() ([]byte, error) {
	if a.trap == nil {
		return nil, errors.New(ecode.InternalErr, "agent not initialized")
	}
	return a.trap.State()
}

func (a *Agent) RestoreState(data []byte) error {
	if a.trap == nil {
		return errors.New(ecode.InternalErr, "agent not initialized")
	}
	return a.trap.RestoreState(data)
}

func stringProp(config map[string]any, key, def string) string {
	v, ok := config[key]
	if !ok || v == nil {
		return def
	}
	s := cast.ToString(v)
	if s == "" {
		return def
	}
	return s
}

func intProp(config map[string]any, key string, def int64) (int64, error) {
	v, ok := config[key]
	if !ok || v == nil {
		return def, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, errors.Wrapf(err, ecode.ValidationErr, "property %s must be an integer", key)
	}
	return n, nil
}
