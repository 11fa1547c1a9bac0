package dao

import (
	"context"

	"gorm.io/gorm"

	"gridflow/internal/model"
)

type JournalDao struct {
	db *gorm.DB
}

func NewJournalDao(db *gorm.DB) *JournalDao {
	return &JournalDao{db: db}
}

// 插入订单流水
func (d *JournalDao) Insert(ctx context.Context, rec *model.OrderJournalRecord) error {
	return d.db.WithContext(ctx).Create(rec).Error
}

// 查询某个实例的最近流水
func (d *JournalDao) ListByInstance(ctx context.Context, instanceID string, limit int) (out []model.OrderJournalRecord, err error) {
	if limit <= 0 {
		limit = 100
	}
	err = d.db.WithContext(ctx).
		Model(&model.OrderJournalRecord{}).
		Where("instance_id = ?", instanceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return
}
