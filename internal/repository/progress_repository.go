package repository

import (
	"context"
	"errors"
	"thai_learn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// ProgressDelta 一次学习行为带来的计数增量
type ProgressDelta struct {
	XPEarned            int
	GamesPlayed         int
	PerfectScores       int
	TimeSpentSeconds    int
	CategoriesCompleted int
	CorrectAnswers      int
}

// Increment 原子累加当天计数，当天无记录时插入
func (r *ProgressRepository) Increment(ctx context.Context, userID uint, day string, d ProgressDelta) error {
	row := &model.DailyProgress{
		UserID:              userID,
		Day:                 day,
		XPEarned:            d.XPEarned,
		GamesPlayed:         d.GamesPlayed,
		PerfectScores:       d.PerfectScores,
		TimeSpentSeconds:    d.TimeSpentSeconds,
		CategoriesCompleted: d.CategoriesCompleted,
		CorrectAnswers:      d.CorrectAnswers,
	}

	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"xp_earned":            gorm.Expr("xp_earned + ?", d.XPEarned),
			"games_played":         gorm.Expr("games_played + ?", d.GamesPlayed),
			"perfect_scores":       gorm.Expr("perfect_scores + ?", d.PerfectScores),
			"time_spent_seconds":   gorm.Expr("time_spent_seconds + ?", d.TimeSpentSeconds),
			"categories_completed": gorm.Expr("categories_completed + ?", d.CategoriesCompleted),
			"correct_answers":      gorm.Expr("correct_answers + ?", d.CorrectAnswers),
		}),
	}).Create(row).Error
}

// FindByUserAndDay 当天无记录时返回全零计数
func (r *ProgressRepository) FindByUserAndDay(ctx context.Context, userID uint, day string) (*model.DailyProgress, error) {
	var progress model.DailyProgress
	err := r.DB.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.DailyProgress{UserID: userID, Day: day}, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindActiveUserIDs 当天有学习记录或签到的用户
func (r *ProgressRepository) FindActiveUserIDs(ctx context.Context, day string) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Raw(
		"SELECT user_id FROM daily_progress WHERE day = ? UNION SELECT user_id FROM checkins WHERE day = ? AND deleted_at IS NULL ORDER BY user_id",
		day, day,
	).Scan(&ids).Error
	return ids, err
}
