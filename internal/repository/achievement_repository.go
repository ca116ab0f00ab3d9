package repository

import (
	"context"
	"thai_learn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) WithTx(tx *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: tx}
}

func (r *AchievementRepository) FindByUserID(ctx context.Context, userID uint) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

// CreateIfAbsent 同一用户同一成就只记录一次，返回是否新解锁
func (r *AchievementRepository) CreateIfAbsent(ctx context.Context, achievement *model.Achievement) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(achievement)
	return result.RowsAffected > 0, result.Error
}

// HasUnlockedOnDay 当天是否解锁过指定来源的成就
func (r *AchievementRepository) HasUnlockedOnDay(ctx context.Context, userID uint, day string, source model.AchievementSource) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Achievement{}).
		Where("user_id = ? AND day = ? AND source = ?", userID, day, source).
		Count(&count).Error
	return count > 0, err
}
