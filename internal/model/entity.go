package model

import (
	"time"

	"gorm.io/datatypes"
)

// 注册的策略源码/定义
type AgentSourceRecord struct {
	ID        uint      `gorm:"column:id;primary_key;" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex" json:"name"`
	Body      string    `gorm:"column:body;type:text" json:"body"`
	Memo      string    `gorm:"column:memo" json:"memo"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (AgentSourceRecord) TableName() string {
	return "agent_source"
}

// 策略实例。State为最近一次checkpoint，进程重启后据此恢复
type AgentInstanceRecord struct {
	ID         uint           `gorm:"column:id;primary_key;" json:"id"`
	InstanceID string         `gorm:"column:instance_id;uniqueIndex" json:"instance_id"`
	ClassName  string         `gorm:"column:class_name" json:"class_name"`
	Config     datatypes.JSON `gorm:"column:config" json:"config"`
	State      datatypes.JSON `gorm:"column:state" json:"state"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (AgentInstanceRecord) TableName() string {
	return "agent_instance"
}

// 订单流水。仅作审计用途，不是状态的事实来源
type OrderJournalRecord struct {
	ID         uint      `gorm:"column:id;primary_key;" json:"id"`
	InstanceID string    `gorm:"column:instance_id" json:"instance_id"`
	Pair       string    `gorm:"column:pair" json:"pair"`
	Side       OrderSide `gorm:"column:side" json:"side"`
	OrderType  OrderType `gorm:"column:order_type" json:"order_type"`
	Units      int64     `gorm:"column:units" json:"units"`
	Price      string    `gorm:"column:price" json:"price"`
	OrderID    string    `gorm:"column:order_id" json:"order_id"`
	Outcome    string    `gorm:"column:outcome" json:"outcome"` // opened / filled / rejected
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (OrderJournalRecord) TableName() string {
	return "order_journal"
}
