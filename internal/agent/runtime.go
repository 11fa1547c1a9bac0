package agent

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"gridflow/internal/broker"
	"gridflow/internal/dao"
	"gridflow/internal/model"
	"gridflow/internal/strategy"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
	"gridflow/pkg/logger"
	"gridflow/pkg/recorder"
)

// Runtime 把策略实例暴露成可远程驱动、可重启的单元。
// 每个实例的tick处理严格串行（实例级互斥锁），不同实例完全并行，
// 互相不共享可变状态
type Runtime struct {
	mu        sync.RWMutex
	instances map[string]*Instance

	dao        *dao.AgentDao   // 可以为nil（无持久化运行）
	journal    *dao.JournalDao // 可以为nil
	rec        recorder.Recorder
	pairs      []model.Pair
	newSession func() broker.Session

	onTick func(model.Tick) // tick广播回调，可以为nil
}

// 一个运行中的策略实例。mu串行化该实例的tick处理：
// 两轮网格巡检重叠会同时观察到“未登记”而在同一价位重复下单
type Instance struct {
	ID        string
	ClassName string
	strategy  strategy.Strategy
	session   broker.Session
	mu        sync.Mutex
}

func NewRuntime(d *dao.AgentDao, j *dao.JournalDao, rec recorder.Recorder,
	pairs []model.Pair, newSession func() broker.Session) *Runtime {
	return &Runtime{
		instances:  make(map[string]*Instance),
		dao:        d,
		journal:    j,
		rec:        rec,
		pairs:      pairs,
		newSession: newSession,
	}
}

func (r *Runtime) SetTickListener(f func(model.Tick)) {
	r.onTick = f
}

// RegisterSource 登记一份策略源码/定义
func (r *Runtime) RegisterSource(ctx context.Context, name, body, memo string) error {
	if name == "" || body == "" {
		return errors.New(ecode.InvalidParamsErr, "source name and body are required")
	}
	if r.dao == nil {
		return errors.New(ecode.InternalErr, "source registry requires persistence")
	}
	return r.dao.SaveSource(ctx, &model.AgentSourceRecord{Name: name, Body: body, Memo: memo})
}

func (r *Runtime) UnregisterSource(ctx context.Context, name string) error {
	if r.dao == nil {
		return errors.New(ecode.InternalErr, "source registry requires persistence")
	}
	return r.dao.DeleteSource(ctx, name)
}

// Classes 返回内置策略类和已登记的源码定义
func (r *Runtime) Classes(ctx context.Context) ([]strategy.Class, []model.AgentSourceRecord, error) {
	classes := strategy.Classes()
	if r.dao == nil {
		return classes, nil, nil
	}
	sources, err := r.dao.ListSources(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, ecode.InternalErr, "list sources failed")
	}
	return classes, sources, nil
}

// CreateInstance 用具体配置实例化一个策略。state非空时先恢复checkpoint，
// 恢复后的实例不会重复提交已存活的网格订单
func (r *Runtime) CreateInstance(ctx context.Context, className string,
	config map[string]any, state []byte) (string, error) {

	f, err := strategy.Get(className)
	if err != nil {
		return "", err
	}
	s := f()
	if err := s.PostCreate(config, r.pairs); err != nil {
		return "", err
	}
	if len(state) > 0 {
		if err := s.RestoreState(state); err != nil {
			return "", err
		}
	}

	id := uuid.NewString()
	session := r.newSession()
	if r.journal != nil || r.rec != nil {
		session = newJournalSession(session, id, r.journal, r.rec)
	}

	inst := &Instance{
		ID:        id,
		ClassName: className,
		strategy:  s,
		session:   session,
	}

	if r.dao != nil {
		cfg, err := json.Marshal(config)
		if err != nil {
			return "", errors.Wrap(err, ecode.InternalErr, "marshal instance config failed")
		}
		rec := &model.AgentInstanceRecord{
			InstanceID: id,
			ClassName:  className,
			Config:     cfg,
			State:      state,
		}
		if err := r.dao.SaveInstance(ctx, rec); err != nil {
			return "", errors.Wrap(err, ecode.InternalErr, "persist instance failed")
		}
	}

	r.mu.Lock()
	r.instances[id] = inst
	r.mu.Unlock()

	logger.Info("agent instance created",
		logger.Pair("instance_id", id),
		logger.Pair("class", className))
	return id, nil
}

// NextTick 把一个行情tick交给实例处理。同一实例不允许两个tick重叠，
// 新tick会等待上一轮网格巡检结束。tick失败不会终结实例，
// 下一个tick会重跑整轮巡检并自然跳过已确认存活的价位
func (r *Runtime) NextTick(ctx context.Context, id string, tick model.Tick) error {
	inst, err := r.instance(id)
	if err != nil {
		return err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	inst.session.UpdateTick(tick)
	if r.onTick != nil {
		r.onTick(tick)
	}

	tickErr := inst.strategy.NextTick(ctx, inst.session)

	// 无论这一轮是否有失败都写checkpoint：
	// 成功登记的价位已经进了状态，失败的价位本来就不会被记录
	if r.dao != nil {
		if blob, serr := inst.strategy.State(); serr == nil {
			if derr := r.dao.UpdateState(ctx, id, blob); derr != nil {
				logger.Errorf("persist checkpoint for %s failed: %v", id, derr)
			}
		}
	}

	if tickErr != nil {
		logger.Error("tick processing failed",
			logger.Pair("instance_id", id),
			logger.Pair("error", tickErr.Error()))
	}
	return tickErr
}

// GetState 返回实例当前的checkpoint
func (r *Runtime) GetState(ctx context.Context, id string) ([]byte, error) {
	inst, err := r.instance(id)
	if err != nil {
		// 不在内存中的实例（比如重启前创建的）回退到持久化的checkpoint
		if r.dao != nil {
			rec, derr := r.dao.GetInstance(ctx, id)
			if derr == nil && rec.InstanceID != "" {
				return rec.State, nil
			}
		}
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	blob, serr := inst.strategy.State()
	if serr != nil {
		return nil, errors.Wrap(serr, ecode.InternalErr, "read state failed")
	}
	return blob, nil
}

// Journal 查询实例的订单流水
func (r *Runtime) Journal(ctx context.Context, id string, limit int) ([]model.OrderJournalRecord, error) {
	if r.journal == nil {
		return nil, errors.New(ecode.InternalErr, "order journal requires persistence")
	}
	return r.journal.ListByInstance(ctx, id, limit)
}

func (r *Runtime) instance(id string) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return nil, errors.Newf(ecode.NotFoundErr, "unknown instance: %s", id)
	}
	return inst, nil
}
