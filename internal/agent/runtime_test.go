package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"gridflow/internal/broker"
	"gridflow/internal/exchange"
	"gridflow/internal/model"
	"gridflow/internal/strategy"
	"gridflow/internal/strategy/traprepeat"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
)

func init() {
	strategy.Register(traprepeat.ClassName, traprepeat.NewAgent)
}

type captureRecorder struct {
	mu     sync.Mutex
	events []any
}

func (c *captureRecorder) Record(event any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func testPairs(t *testing.T) []model.Pair {
	t.Helper()
	p, err := model.NewPair("USDJPY", "0.01")
	if err != nil {
		t.Fatal(err)
	}
	return []model.Pair{p}
}

func usdjpyTick(bid, ask string) model.Tick {
	return model.Tick{
		Timestamp: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		Values: map[string]model.TickValue{
			"USDJPY": {
				Bid: decimal.RequireFromString(bid),
				Ask: decimal.RequireFromString(ask),
			},
		},
	}
}

func newTestRuntime(t *testing.T) (*Runtime, *exchange.SimulatedBroker, *captureRecorder) {
	t.Helper()
	sim := exchange.NewSimulatedBroker()
	rec := &captureRecorder{}
	rt := NewRuntime(nil, nil, rec, testPairs(t), func() broker.Session { return sim })
	return rt, sim, rec
}

func TestCreateInstanceUnknownClass(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	_, err := rt.CreateInstance(context.Background(), "no_such_class", nil, nil)
	if !errors.IsCode(err, ecode.NotFoundErr) {
		t.Errorf("expected NotFoundErr, got %v", err)
	}
}

func TestCreateInstanceInvalidConfig(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	_, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "XAUUSD"}, nil)
	if !errors.IsCode(err, ecode.ValidationErr) {
		t.Errorf("expected ValidationErr, got %v", err)
	}
}

func TestNextTickDrivesStrategy(t *testing.T) {
	rt, sim, rec := newTestRuntime(t)

	id, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY", "trap_interval_pips": 50, "profit_pips": 100}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := rt.NextTick(context.Background(), id, usdjpyTick("120.08", "120.10")); err != nil {
		t.Fatal(err)
	}

	orders, _ := sim.Orders(context.Background())
	if len(orders) != 6 {
		t.Errorf("expected 6 grid orders, got %d", len(orders))
	}
	// 每笔下单都进流水
	if rec.count() != 6 {
		t.Errorf("expected 6 journal events, got %d", rec.count())
	}
}

func TestNextTickUnknownInstance(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	err := rt.NextTick(context.Background(), "missing", usdjpyTick("120.08", "120.10"))
	if !errors.IsCode(err, ecode.NotFoundErr) {
		t.Errorf("expected NotFoundErr, got %v", err)
	}
}

func TestGetState(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	id, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.NextTick(context.Background(), id, usdjpyTick("120.08", "120.10")); err != nil {
		t.Fatal(err)
	}

	blob, err := rt.GetState(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	var state struct {
		SchemaVersion int               `json:"schema_version"`
		Orders        map[string]string `json:"orders"`
	}
	if err := json.Unmarshal(blob, &state); err != nil {
		t.Fatal(err)
	}
	if state.SchemaVersion != 1 {
		t.Errorf("schema version = %d", state.SchemaVersion)
	}
	if len(state.Orders) != 6 {
		t.Errorf("expected 6 recorded levels, got %d", len(state.Orders))
	}
}

// 携带checkpoint创建的实例不重复提交已存活的订单
func TestCreateInstanceRestoresState(t *testing.T) {
	rt, sim, _ := newTestRuntime(t)

	id, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.NextTick(context.Background(), id, usdjpyTick("120.08", "120.10")); err != nil {
		t.Fatal(err)
	}
	blob, err := rt.GetState(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	// 同一会话上用checkpoint重建实例，模拟进程重启
	id2, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY"}, blob)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.NextTick(context.Background(), id2, usdjpyTick("120.08", "120.10")); err != nil {
		t.Fatal(err)
	}

	orders, _ := sim.Orders(context.Background())
	if len(orders) != 6 {
		t.Errorf("restored instance must not duplicate orders, got %d", len(orders))
	}
}

// 从未tick过的实例GetState回读到的checkpoint是JSON null，
// 原样传回CreateInstance必须当作无checkpoint处理
func TestCreateInstanceNullCheckpoint(t *testing.T) {
	rt, sim, _ := newTestRuntime(t)

	id, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY"}, []byte("null"))
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.NextTick(context.Background(), id, usdjpyTick("120.08", "120.10")); err != nil {
		t.Fatal(err)
	}
	orders, _ := sim.Orders(context.Background())
	if len(orders) != 6 {
		t.Errorf("expected 6 grid orders, got %d", len(orders))
	}
}

func TestCreateInstanceBadCheckpoint(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	_, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY"}, []byte(`{"schema_version":99}`))
	if !errors.IsCode(err, ecode.ValidationErr) {
		t.Errorf("expected ValidationErr, got %v", err)
	}
}

// 同一实例的tick处理严格串行，并发提交不会重复下单
func TestNextTickSerialized(t *testing.T) {
	rt, sim, _ := newTestRuntime(t)

	id, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rt.NextTick(context.Background(), id, usdjpyTick("120.08", "120.10"))
		}()
	}
	wg.Wait()

	orders, _ := sim.Orders(context.Background())
	if len(orders) != 6 {
		t.Errorf("expected 6 orders after concurrent ticks, got %d", len(orders))
	}
}

func TestTickListener(t *testing.T) {
	rt, _, _ := newTestRuntime(t)

	var got []model.Tick
	rt.SetTickListener(func(tick model.Tick) { got = append(got, tick) })

	id, err := rt.CreateInstance(context.Background(), traprepeat.ClassName,
		map[string]any{"pair": "USDJPY"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.NextTick(context.Background(), id, usdjpyTick("120.08", "120.10")); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 broadcast tick, got %d", len(got))
	}
	if _, ok := got[0].Values["USDJPY"]; !ok {
		t.Error("broadcast tick missing quote")
	}
}

func TestClassesListsBuiltins(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	classes, sources, err := rt.Classes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sources != nil {
		t.Error("no persistence, no registered sources expected")
	}
	found := false
	for _, c := range classes {
		if c.Name == traprepeat.ClassName {
			found = true
			if len(c.Properties) == 0 {
				t.Error("class should declare properties")
			}
		}
	}
	if !found {
		t.Error("built-in class missing from listing")
	}
}

func TestRegisterSourceRequiresPersistence(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	if err := rt.RegisterSource(context.Background(), "my_agent", "class MyAgent; end", ""); err == nil {
		t.Error("expected error without persistence")
	}
	// 参数校验先于持久化检查
	err := rt.RegisterSource(context.Background(), "", "", "")
	if !errors.IsCode(err, ecode.InvalidParamsErr) {
		t.Errorf("expected InvalidParamsErr, got %v", err)
	}
}
