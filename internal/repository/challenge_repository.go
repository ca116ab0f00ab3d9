package repository

import (
	"context"
	"thai_learn_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

func (r *ChallengeRepository) WithTx(tx *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: tx}
}

// FindDefinitionsByDay 按 id 升序返回某天的挑战定义
func (r *ChallengeRepository) FindDefinitionsByDay(ctx context.Context, day string) ([]model.ChallengeDefinition, error) {
	var defs []model.ChallengeDefinition
	err := r.DB.WithContext(ctx).
		Where("effective_date = ?", day).
		Order("id ASC").
		Find(&defs).Error
	return defs, err
}

func (r *ChallengeRepository) FindDefinitionByID(ctx context.Context, id uint) (*model.ChallengeDefinition, error) {
	var def model.ChallengeDefinition
	err := r.DB.WithContext(ctx).First(&def, id).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// InsertDefinitionIfAbsent 以 (effective_date, kind) 为键插入，已存在时不做任何修改
func (r *ChallengeRepository) InsertDefinitionIfAbsent(ctx context.Context, def *model.ChallengeDefinition) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(def)
	return result.RowsAffected > 0, result.Error
}

func (r *ChallengeRepository) SetDefinitionActive(ctx context.Context, id uint, active bool) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.ChallengeDefinition{}).
		Where("id = ?", id).
		Update("active", active)
	return result.RowsAffected, result.Error
}

// FindProgressByUserAndDay 用户当天所有挑战进度
func (r *ChallengeRepository) FindProgressByUserAndDay(ctx context.Context, userID uint, day string) ([]model.ChallengeProgress, error) {
	var rows []model.ChallengeProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND effective_date = ?", userID, day).
		Order("challenge_id ASC").
		Find(&rows).Error
	return rows, err
}

// CreateProgressIfAbsent 并发评估时只有一方能创建成功
func (r *ChallengeRepository) CreateProgressIfAbsent(ctx context.Context, progress *model.ChallengeProgress) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(progress)
	return result.RowsAffected > 0, result.Error
}

// UpdatePendingValue 只更新仍为 pending 的进度值
func (r *ChallengeRepository) UpdatePendingValue(ctx context.Context, userID, challengeID uint, value int) error {
	return r.DB.WithContext(ctx).Model(&model.ChallengeProgress{}).
		Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, model.ChallengePending).
		Update("current_value", value).Error
}

// MarkCompleted pending -> completed 条件更新，返回 false 表示已被其他评估完成
func (r *ChallengeRepository) MarkCompleted(ctx context.Context, userID, challengeID uint, value int, at time.Time) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&model.ChallengeProgress{}).
		Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, model.ChallengePending).
		Updates(map[string]interface{}{
			"status":        model.ChallengeCompleted,
			"completed_at":  at,
			"current_value": value,
		})
	return result.RowsAffected > 0, result.Error
}
