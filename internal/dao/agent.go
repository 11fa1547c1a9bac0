package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gridflow/internal/model"
)

type AgentDao struct {
	db *gorm.DB
}

func NewAgentDao(db *gorm.DB) *AgentDao {
	return &AgentDao{db: db}
}

// 保存策略源码定义，同名覆盖
func (d *AgentDao) SaveSource(ctx context.Context, rec *model.AgentSourceRecord) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "memo", "updated_at"}),
		}).
		Create(rec).Error
}

func (d *AgentDao) DeleteSource(ctx context.Context, name string) error {
	return d.db.WithContext(ctx).
		Where("name = ?", name).
		Delete(&model.AgentSourceRecord{}).Error
}

func (d *AgentDao) ListSources(ctx context.Context) (out []model.AgentSourceRecord, err error) {
	err = d.db.WithContext(ctx).
		Model(&model.AgentSourceRecord{}).
		Order("name ASC").
		Find(&out).Error
	return
}

// 保存实例记录（创建时调用）
func (d *AgentDao) SaveInstance(ctx context.Context, rec *model.AgentInstanceRecord) error {
	return d.db.WithContext(ctx).Create(rec).Error
}

// 写入实例的最新checkpoint
func (d *AgentDao) UpdateState(ctx context.Context, instanceID string, state []byte) error {
	return d.db.WithContext(ctx).
		Model(&model.AgentInstanceRecord{}).
		Where("instance_id = ?", instanceID).
		Update("state", state).Error
}

func (d *AgentDao) GetInstance(ctx context.Context, instanceID string) (rec model.AgentInstanceRecord, err error) {
	err = d.db.WithContext(ctx).
		Model(&model.AgentInstanceRecord{}).
		Where("instance_id = ?", instanceID).
		Limit(1).
		Find(&rec).Error
	return
}
