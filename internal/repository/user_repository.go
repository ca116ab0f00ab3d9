package repository

import (
	"context"
	"thai_learn_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

// EnsureExists 首次访问时按令牌信息建立学习者档案，已存在则不修改
func (r *UserRepository) EnsureExists(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).Error
}

func (r *UserRepository) UpdateLevel(ctx context.Context, userID uint, level model.LearnerLevel) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("level", level)
	return result.RowsAffected, result.Error
}

func (r *UserRepository) UpdateXP(ctx context.Context, userID uint, xp int) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("xp", gorm.Expr("xp + ?", xp)).
		Error
}

// AddBonus 原子增加经验和连续天数，避免并发奖励丢失更新
func (r *UserRepository) AddBonus(ctx context.Context, userID uint, xp, streak int) error {
	updates := map[string]interface{}{
		"xp":     gorm.Expr("xp + ?", xp),
		"streak": gorm.Expr("streak + ?", streak),
	}
	if streak > 0 {
		// 按列名排序生成 SET，longest_streak 在 streak 之前赋值，读取的是旧值
		updates["longest_streak"] = gorm.Expr("CASE WHEN streak + ? > longest_streak THEN streak + ? ELSE longest_streak END", streak, streak)
	}
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(updates).
		Error
}

// UpdateStreak 签到后写入连续天数
func (r *UserRepository) UpdateStreak(ctx context.Context, userID uint, streak int, loginAt time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"streak":         streak,
			"longest_streak": gorm.Expr("CASE WHEN ? > longest_streak THEN ? ELSE longest_streak END", streak, streak),
			"last_login":     loginAt,
		}).Error
}

func (r *UserRepository) FindTopByXP(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Order("xp DESC").Order("id ASC").Limit(limit).Find(&users).Error
	return users, err
}
