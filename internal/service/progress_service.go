package service

import (
	"context"
	"errors"
	"fmt"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/repository"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 连续签到里程碑（天）
var streakMilestones = []int{3, 7, 30, 100}

// GameResult 一局测验的结果
type GameResult struct {
	XPEarned          int    `json:"xpEarned" binding:"min=0"`
	CorrectAnswers    int    `json:"correctAnswers" binding:"min=0"`
	TotalQuestions    int    `json:"totalQuestions" binding:"min=0"`
	DurationSeconds   int    `json:"durationSeconds" binding:"min=0"`
	CategoryCompleted bool   `json:"categoryCompleted"`
	Category          string `json:"category"`
}

// Perfect 全部答对
func (r GameResult) Perfect() bool {
	return r.TotalQuestions > 0 && r.CorrectAnswers == r.TotalQuestions
}

func (r GameResult) validate() error {
	if r.XPEarned < 0 || r.CorrectAnswers < 0 || r.TotalQuestions < 0 || r.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative values", util.ErrInvalidGameResult)
	}
	if r.CorrectAnswers > r.TotalQuestions {
		return fmt.Errorf("%w: correct answers exceed total questions", util.ErrInvalidGameResult)
	}
	return nil
}

type GameRecord struct {
	Day      string               `json:"day"`
	Progress *model.DailyProgress `json:"progress"`
	Unlocked []model.Achievement  `json:"unlocked,omitempty"`
}

type LoginRecord struct {
	Day        string              `json:"day"`
	NewCheckin bool                `json:"newCheckin"`
	Streak     int                 `json:"streak"`
	Unlocked   []model.Achievement `json:"unlocked,omitempty"`
}

// ProgressService 学习进度存储：每日计数、签到、里程碑成就和奖励发放
type ProgressService struct {
	db              *gorm.DB
	UserRepo        *repository.UserRepository
	ProgressRepo    *repository.ProgressRepository
	CheckinRepo     *repository.CheckinRepository
	AchievementRepo *repository.AchievementRepository
	RewardRepo      *repository.RewardRepository
	now             func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	progressRepo *repository.ProgressRepository,
	checkinRepo *repository.CheckinRepository,
	achievementRepo *repository.AchievementRepository,
	rewardRepo *repository.RewardRepository,
) *ProgressService {
	return &ProgressService{
		db:              db,
		UserRepo:        userRepo,
		ProgressRepo:    progressRepo,
		CheckinRepo:     checkinRepo,
		AchievementRepo: achievementRepo,
		RewardRepo:      rewardRepo,
		now:             time.Now,
	}
}

// GetProfile 获取学习者档案
func (s *ProgressService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RecordGameResult 记录一局测验，累加当天计数与总经验
func (s *ProgressService) RecordGameResult(ctx context.Context, userID uint, day string, result GameResult) (*GameRecord, error) {
	if err := result.validate(); err != nil {
		return nil, err
	}

	delta := repository.ProgressDelta{
		XPEarned:         result.XPEarned,
		GamesPlayed:      1,
		TimeSpentSeconds: result.DurationSeconds,
		CorrectAnswers:   result.CorrectAnswers,
	}
	if result.Perfect() {
		delta.PerfectScores = 1
	}
	if result.CategoryCompleted {
		delta.CategoriesCompleted = 1
	}

	var unlocked []model.Achievement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)
		user, err := users.FindByID(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if err := s.ProgressRepo.WithTx(tx).Increment(ctx, userID, day, delta); err != nil {
			return err
		}
		if result.XPEarned == 0 {
			return nil
		}
		if err := users.UpdateXP(ctx, userID, result.XPEarned); err != nil {
			return err
		}

		unlocked, err = s.unlockLevels(ctx, tx, userID, day, user.XP, user.XP+result.XPEarned)
		return err
	})
	if err != nil {
		return nil, err
	}

	progress, err := s.ProgressRepo.FindByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	logger.Log.Debug("Game result recorded",
		zap.Uint("userId", userID),
		zap.String("day", day),
		zap.Int("xp", result.XPEarned),
		zap.Bool("perfect", result.Perfect()),
	)

	return &GameRecord{Day: day, Progress: progress, Unlocked: unlocked}, nil
}

// unlockLevels 经验从 fromXP 增加到 toXP 时解锁跨过的等级里程碑
func (s *ProgressService) unlockLevels(ctx context.Context, tx *gorm.DB, userID uint, day string, fromXP, toXP int) ([]model.Achievement, error) {
	var unlocked []model.Achievement
	before, _ := calculateLevel(fromXP)
	after, _ := calculateLevel(toXP)
	for level := before + 1; level <= after; level++ {
		a := &model.Achievement{
			UserID: userID,
			Code:   fmt.Sprintf("level-%d", level),
			Name:   fmt.Sprintf("Reached level %d", level),
			Source: model.AchievementMilestone,
			Day:    day,
		}
		created, err := s.AchievementRepo.WithTx(tx).CreateIfAbsent(ctx, a)
		if err != nil {
			return nil, err
		}
		if created {
			unlocked = append(unlocked, *a)
		}
	}
	return unlocked, nil
}

// streakOn 某天的连续天数：当天或前一天的签到链加上此后发放的连续奖励，断签为 0
func (s *ProgressService) streakOn(ctx context.Context, db *gorm.DB, userID uint, day string) (int, error) {
	prevDay, err := util.PreviousDay(day)
	if err != nil {
		return 0, err
	}

	latest, err := s.CheckinRepo.WithTx(db).FindLatestOnOrBefore(ctx, userID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if latest.Day != day && latest.Day != prevDay {
		return 0, nil
	}

	bonus, err := s.RewardRepo.WithTx(db).SumStreakBonus(ctx, userID, latest.Day, day)
	if err != nil {
		return 0, err
	}
	return latest.StreakDays + bonus, nil
}

// RecordLogin 每日签到，同一天重复调用不改变连续天数
func (s *ProgressService) RecordLogin(ctx context.Context, userID uint, day string) (*LoginRecord, error) {
	prevDay, err := util.PreviousDay(day)
	if err != nil {
		return nil, err
	}

	record := &LoginRecord{Day: day}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checkins := s.CheckinRepo.WithTx(tx)

		if _, err := s.UserRepo.WithTx(tx).FindByID(ctx, userID); errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		} else if err != nil {
			return err
		}

		exists, err := checkins.ExistsOnDay(ctx, userID, day)
		if err != nil {
			return err
		}
		if exists {
			record.Streak, err = s.streakOn(ctx, tx, userID, day)
			return err
		}

		// 签到记录只保存签到链本身，当天之前发放的连续奖励并入下一次签到
		chain := 1
		latest, err := checkins.FindLatestBefore(ctx, userID, day)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if latest != nil && latest.Day == prevDay {
			bonus, err := s.RewardRepo.WithTx(tx).SumStreakBonus(ctx, userID, prevDay, prevDay)
			if err != nil {
				return err
			}
			chain = latest.StreakDays + bonus + 1
		}

		now := s.now()
		created, err := checkins.Create(ctx, &model.Checkin{
			UserID:     userID,
			Day:        day,
			CheckinAt:  now,
			StreakDays: chain,
		})
		if err != nil {
			return err
		}

		// 未新建说明并发签到已由另一方写入
		record.Streak, err = s.streakOn(ctx, tx, userID, day)
		if err != nil || !created {
			return err
		}

		if err := s.UserRepo.WithTx(tx).UpdateStreak(ctx, userID, record.Streak, now); err != nil {
			return err
		}
		record.NewCheckin = true

		for _, m := range streakMilestones {
			if record.Streak < m {
				break
			}
			a := &model.Achievement{
				UserID: userID,
				Code:   fmt.Sprintf("streak-%d", m),
				Name:   fmt.Sprintf("%d day streak", m),
				Source: model.AchievementMilestone,
				Day:    day,
			}
			ok, err := s.AchievementRepo.WithTx(tx).CreateIfAbsent(ctx, a)
			if err != nil {
				return err
			}
			if ok {
				record.Unlocked = append(record.Unlocked, *a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if record.NewCheckin {
		logger.Log.Info("Daily login recorded",
			zap.Uint("userId", userID),
			zap.String("day", day),
			zap.Int("streak", record.Streak),
		)
	}
	return record, nil
}

// GetSnapshot 某天的计数快照，连续天数按当天的签到链计算
func (s *ProgressService) GetSnapshot(ctx context.Context, userID uint, day string) (model.ProgressSnapshot, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return model.ProgressSnapshot{}, err
	}

	daily, err := s.ProgressRepo.FindByUserAndDay(ctx, userID, day)
	if err != nil {
		return model.ProgressSnapshot{}, err
	}

	streak, err := s.streakOn(ctx, s.db, userID, day)
	if err != nil {
		return model.ProgressSnapshot{}, err
	}

	return model.ProgressSnapshot{
		XP:                  daily.XPEarned,
		Streak:              streak,
		GamesPlayed:         daily.GamesPlayed,
		PerfectScores:       daily.PerfectScores,
		TimeSpentSeconds:    daily.TimeSpentSeconds,
		CategoriesCompleted: daily.CategoriesCompleted,
		CorrectAnswers:      daily.CorrectAnswers,
	}, nil
}

// GetSignals 事件型挑战信号：当天是否签到、是否解锁里程碑成就
func (s *ProgressService) GetSignals(ctx context.Context, userID uint, day string) (model.EventSignals, error) {
	loggedIn, err := s.CheckinRepo.ExistsOnDay(ctx, userID, day)
	if err != nil {
		return model.EventSignals{}, err
	}

	unlocked, err := s.AchievementRepo.HasUnlockedOnDay(ctx, userID, day, model.AchievementMilestone)
	if err != nil {
		return model.EventSignals{}, err
	}

	return model.EventSignals{
		LoggedInToday:              loggedIn,
		UnlockedSpecialAchievement: unlocked,
	}, nil
}

// ApplyReward 在调用方事务内发放奖励，按 (userId, challengeId) 幂等
// 返回 false 表示该挑战的奖励此前已发放
func (s *ProgressService) ApplyReward(ctx context.Context, tx *gorm.DB, grant *model.RewardGrant) (bool, error) {
	if grant.GrantedAt.IsZero() {
		grant.GrantedAt = s.now()
	}

	created, err := s.RewardRepo.WithTx(tx).CreateIfAbsent(ctx, grant)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	if grant.XPBonus > 0 || grant.StreakBonus > 0 {
		users := s.UserRepo.WithTx(tx)
		user, err := users.FindByID(ctx, grant.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrUserNotFound
		}
		if err != nil {
			return false, err
		}
		if err := users.AddBonus(ctx, grant.UserID, grant.XPBonus, grant.StreakBonus); err != nil {
			return false, err
		}
		// 奖励经验同样可能跨过等级
		if _, err := s.unlockLevels(ctx, tx, grant.UserID, grant.Day, user.XP, user.XP+grant.XPBonus); err != nil {
			return false, err
		}
	}

	if grant.Badge != "" {
		_, err := s.AchievementRepo.WithTx(tx).CreateIfAbsent(ctx, &model.Achievement{
			UserID:   grant.UserID,
			Code:     "badge-" + grant.Badge,
			Name:     grant.Badge,
			Source:   model.AchievementChallenge,
			Day:      grant.Day,
			EarnedXP: grant.XPBonus,
		})
		if err != nil {
			return false, err
		}
	}

	return true, nil
}

// ActiveUserIDs 当天有学习记录或签到的用户
func (s *ProgressService) ActiveUserIDs(ctx context.Context, day string) ([]uint, error) {
	return s.ProgressRepo.FindActiveUserIDs(ctx, day)
}

// GetRewards 当天已发放的挑战奖励
func (s *ProgressService) GetRewards(ctx context.Context, userID uint, day string) ([]model.RewardGrant, error) {
	return s.RewardRepo.FindByUserAndDay(ctx, userID, day)
}
