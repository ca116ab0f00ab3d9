package repository

import (
	"context"
	"thai_learn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardRepository struct {
	DB *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{DB: db}
}

func (r *RewardRepository) WithTx(tx *gorm.DB) *RewardRepository {
	return &RewardRepository{DB: tx}
}

// CreateIfAbsent 以 (user_id, challenge_id) 去重，返回是否为首次发放
func (r *RewardRepository) CreateIfAbsent(ctx context.Context, grant *model.RewardGrant) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant)
	return result.RowsAffected > 0, result.Error
}

func (r *RewardRepository) FindByUserAndDay(ctx context.Context, userID uint, day string) ([]model.RewardGrant, error) {
	var grants []model.RewardGrant
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("challenge_id ASC").
		Find(&grants).Error
	return grants, err
}

// SumStreakBonus [from, to] 日期区间内发放的连续天数奖励之和
func (r *RewardRepository) SumStreakBonus(ctx context.Context, userID uint, from, to string) (int, error) {
	var total int
	err := r.DB.WithContext(ctx).Model(&model.RewardGrant{}).
		Select("COALESCE(SUM(streak_bonus), 0)").
		Where("user_id = ? AND day >= ? AND day <= ?", userID, from, to).
		Scan(&total).Error
	return total, err
}
