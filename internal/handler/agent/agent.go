package agent

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gridflow/internal/agent"
	"gridflow/internal/model"
	"gridflow/pkg/errors"
	"gridflow/pkg/errors/ecode"
	"gridflow/pkg/response"
)

// 策略运行时的请求/响应接口
type Handler struct {
	rt *agent.Runtime
}

func NewHandler(rt *agent.Runtime) *Handler {
	return &Handler{rt: rt}
}

type registerSourceReq struct {
	Name string `json:"name" binding:"required"`
	Body string `json:"body" binding:"required"`
	Memo string `json:"memo"`
}

// 注册策略源码定义
func (h *Handler) SourceRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerSourceReq
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, errors.Wrap(err, ecode.InvalidParamsErr, "invalid register request"), nil)
			return
		}
		err := h.rt.RegisterSource(c.Request.Context(), req.Name, req.Body, req.Memo)
		response.JSON(c, err, nil)
	}
}

// 注销策略源码定义
func (h *Handler) SourceUnregister() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if name == "" {
			response.JSON(c, errors.New(ecode.InvalidParamsErr, "source name is required"), nil)
			return
		}
		err := h.rt.UnregisterSource(c.Request.Context(), name)
		response.JSON(c, err, nil)
	}
}

// 列出策略类及其可配置属性
func (h *Handler) ClassesGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		classes, sources, err := h.rt.Classes(c.Request.Context())
		if err != nil {
			response.JSON(c, err, nil)
			return
		}
		response.JSON(c, nil, gin.H{
			"classes": classes,
			"sources": sources,
		})
	}
}

type createInstanceReq struct {
	ClassName string          `json:"class_name" binding:"required"`
	Config    map[string]any  `json:"config"`
	State     json.RawMessage `json:"state"` // 上次的checkpoint，可省略
}

// 创建策略实例，返回实例id
func (h *Handler) InstanceCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createInstanceReq
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, errors.Wrap(err, ecode.InvalidParamsErr, "invalid create request"), nil)
			return
		}
		id, err := h.rt.CreateInstance(c.Request.Context(), req.ClassName, req.Config, req.State)
		if err != nil {
			response.JSON(c, err, nil)
			return
		}
		response.JSON(c, nil, gin.H{"instance_id": id})
	}
}

type tickValueReq struct {
	Bid string `json:"bid" binding:"required"`
	Ask string `json:"ask" binding:"required"`
}

type nextTickReq struct {
	Timestamp time.Time               `json:"timestamp" binding:"required"`
	Values    map[string]tickValueReq `json:"values" binding:"required"`
}

func (req *nextTickReq) toTick() (model.Tick, error) {
	tick := model.Tick{
		Timestamp: req.Timestamp,
		Values:    make(map[string]model.TickValue, len(req.Values)),
	}
	for pair, v := range req.Values {
		bid, err := model.ParsePrice(v.Bid)
		if err != nil {
			return model.Tick{}, err
		}
		ask, err := model.ParsePrice(v.Ask)
		if err != nil {
			return model.Tick{}, err
		}
		tick.Values[pair] = model.TickValue{Bid: bid, Ask: ask}
	}
	return tick, nil
}

// 投递一个行情tick给实例
func (h *Handler) InstanceNextTick() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nextTickReq
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, errors.Wrap(err, ecode.InvalidParamsErr, "invalid tick request"), nil)
			return
		}
		tick, err := req.toTick()
		if err != nil {
			response.JSON(c, err, nil)
			return
		}
		err = h.rt.NextTick(c.Request.Context(), c.Param("id"), tick)
		response.JSON(c, err, nil)
	}
}

// 查询实例的订单流水
func (h *Handler) InstanceJournalGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		records, err := h.rt.Journal(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			response.JSON(c, err, nil)
			return
		}
		response.JSON(c, nil, gin.H{"journal": records})
	}
}

// 读取实例当前的checkpoint
func (h *Handler) InstanceStateGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		blob, err := h.rt.GetState(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.JSON(c, err, nil)
			return
		}
		response.JSON(c, nil, gin.H{"state": json.RawMessage(blob)})
	}
}
