package router

import (
	"github.com/gin-gonic/gin"

	"gridflow/internal/handler/agent"
	"gridflow/internal/handler/ticker"
)

type ApiRouter struct {
	agentHandler  *agent.Handler
	tickerHandler *ticker.Handler
}

func NewApiRouter(ah *agent.Handler, th *ticker.Handler) *ApiRouter {
	return &ApiRouter{agentHandler: ah, tickerHandler: th}
}

func (api *ApiRouter) Load(g *gin.Engine) {

	base := g.Group("/api/v1")

	a := base.Group("/agents")
	{
		// 注册、注销代理源码
		a.POST("/sources", api.agentHandler.SourceRegister())
		a.DELETE("/sources/:name", api.agentHandler.SourceUnregister())
		// 已编译的代理类列表
		a.GET("/classes", api.agentHandler.ClassesGet())

		a.POST("/instances", api.agentHandler.InstanceCreate())
		a.POST("/instances/:id/tick", api.agentHandler.InstanceNextTick())
		a.GET("/instances/:id/state", api.agentHandler.InstanceStateGet())
		a.GET("/instances/:id/journal", api.agentHandler.InstanceJournalGet())
	}

	p := base.Group("/ticker")
	{
		p.GET("/ws", api.tickerHandler.ServeWS) // 通过websocket连接获取价格
	}
}
