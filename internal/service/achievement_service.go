package service

import (
	"context"
	"errors"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/repository"
	"thai_learn_backend/internal/util"

	"gorm.io/gorm"
)

type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	UserRepo        *repository.UserRepository
	CheckinRepo     *repository.CheckinRepository
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	userRepo *repository.UserRepository,
	checkinRepo *repository.CheckinRepository,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		UserRepo:        userRepo,
		CheckinRepo:     checkinRepo,
	}
}

type UserAchievements struct {
	TotalXP       int                 `json:"totalXp"`
	CurrentLevel  int                 `json:"currentLevel"`
	NextLevelXP   int                 `json:"nextLevelXp"`
	Streak        int                 `json:"streak"`
	LongestStreak int                 `json:"longestStreak"`
	TotalCheckins int64               `json:"totalCheckins"`
	Badges        []model.Achievement `json:"badges"`
	Leaderboard   []LeaderboardEntry  `json:"leaderboard"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	User   string `json:"user"`
	XP     int    `json:"xp"`
	Streak int    `json:"streak"`
}

func (s *AchievementService) GetUserAchievements(ctx context.Context, userID uint) (*UserAchievements, error) {
	// 获取用户信息
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	// 获取用户成就
	achievements, err := s.AchievementRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	checkins, err := s.CheckinRepo.GetCheckinCountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 获取排行榜
	leaderboard, err := s.GetLeaderboard(ctx, 10)
	if err != nil {
		return nil, err
	}

	// 计算等级
	level, nextLevelXP := calculateLevel(user.XP)

	return &UserAchievements{
		TotalXP:       user.XP,
		CurrentLevel:  level,
		NextLevelXP:   nextLevelXP,
		Streak:        user.Streak,
		LongestStreak: user.LongestStreak,
		TotalCheckins: checkins,
		Badges:        achievements,
		Leaderboard:   leaderboard,
	}, nil
}

func (s *AchievementService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	users, err := s.UserRepo.FindTopByXP(ctx, limit)
	if err != nil {
		return nil, err
	}

	leaderboard := make([]LeaderboardEntry, len(users))
	for i, user := range users {
		leaderboard[i] = LeaderboardEntry{
			Rank:   i + 1,
			User:   user.Name,
			XP:     user.XP,
			Streak: user.Streak,
		}
	}

	return leaderboard, nil
}

func calculateLevel(xp int) (int, int) {
	// 简单等级计算：每200XP升一级
	level := xp / 200
	nextLevelXP := (level + 1) * 200
	return level, nextLevelXP
}
