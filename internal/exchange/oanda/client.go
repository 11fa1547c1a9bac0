package oanda

import (
	"context"
)

// Client 是账户作用域的券商REST客户端。
// 报文的传输细节在系统边界之外，这里只约定解码后的JSON结构
type Client interface {
	// 提交订单。body为 {"order": {...}} 结构
	CreateOrder(ctx context.Context, body map[string]any) (map[string]any, error)
	// 查询订单列表
	Orders(ctx context.Context, params map[string]string) ([]map[string]any, error)
	// 查询单个订单
	Order(ctx context.Context, id string) (map[string]any, error)
	// 修改订单
	UpdateOrder(ctx context.Context, id string, body map[string]any) (map[string]any, error)
	// 撤销订单
	CancelOrder(ctx context.Context, id string) (map[string]any, error)
	// 当前未平仓建玉
	OpenTrades(ctx context.Context) ([]map[string]any, error)
	// 查询单个建玉
	Trade(ctx context.Context, id string) (map[string]any, error)
}
