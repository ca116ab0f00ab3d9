package repository

import (
	"context"
	"thai_learn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckinRepository struct {
	DB *gorm.DB
}

// NewCheckinRepository 创建新的签到仓库实例
func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{DB: db}
}

func (r *CheckinRepository) WithTx(tx *gorm.DB) *CheckinRepository {
	return &CheckinRepository{DB: tx}
}

// Create 创建签到记录，当天已签到时不重复写入，返回是否新建
func (r *CheckinRepository) Create(ctx context.Context, checkin *model.Checkin) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(checkin)
	return result.RowsAffected > 0, result.Error
}

// FindByUserAndDay 检查用户在指定日期是否已签到
func (r *CheckinRepository) FindByUserAndDay(ctx context.Context, userID uint, day string) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.DB.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).First(&checkin).Error
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

// ExistsOnDay 指定日期是否有签到
func (r *CheckinRepository) ExistsOnDay(ctx context.Context, userID uint, day string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Checkin{}).
		Where("user_id = ? AND day = ?", userID, day).
		Count(&count).Error
	return count > 0, err
}

// FindLatestBefore 获取指定日期之前最近的签到记录
func (r *CheckinRepository) FindLatestBefore(ctx context.Context, userID uint, day string) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND day < ?", userID, day).
		Order("day DESC").
		First(&checkin).Error
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

// FindLatestOnOrBefore 获取指定日期（含）之前最近的签到记录
func (r *CheckinRepository) FindLatestOnOrBefore(ctx context.Context, userID uint, day string) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND day <= ?", userID, day).
		Order("day DESC").
		First(&checkin).Error
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

// GetCheckinCountByUser 获取用户的总签到次数
func (r *CheckinRepository) GetCheckinCountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Checkin{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
