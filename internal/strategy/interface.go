package strategy

import (
	"context"

	"gridflow/internal/broker"
	"gridflow/internal/model"
)

// 策略接口定义

// UI/接口侧可配置的属性声明
type Property struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default any    `json:"default"`
}

// Strategy 是一个可远程驱动、可重启的策略单元。
// State/RestoreState 构成checkpoint契约：State返回的内容在重启后原样
// 交还给RestoreState，策略据此避免重复下单
type Strategy interface {
	Description() string
	Properties() []Property
	// 用具体配置值初始化策略。config来自接口侧，值类型不保证
	PostCreate(config map[string]any, pairs []model.Pair) error
	// 处理一个行情tick。同一实例的调用由运行时串行化
	NextTick(ctx context.Context, b broker.Broker) error
	// 当前checkpoint
	State() ([]byte, error)
	// 恢复checkpoint。data为nil/空/JSON null时保持当前状态
	RestoreState(data []byte) error
}

// Factory 创建一个未初始化的策略实例
type Factory func() Strategy
