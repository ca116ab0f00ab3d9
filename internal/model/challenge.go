package model

import (
	"time"
)

// ChallengeKind 挑战类型
type ChallengeKind string

const (
	KindXPGoal              ChallengeKind = "xp_goal"
	KindStreakGoal          ChallengeKind = "streak_goal"
	KindGamesPlayed         ChallengeKind = "games_played"
	KindPerfectScores       ChallengeKind = "perfect_scores"
	KindTimeSpent           ChallengeKind = "time_spent"
	KindCategoriesCompleted ChallengeKind = "categories_completed"
	KindCorrectAnswers      ChallengeKind = "correct_answers"
	KindDailyLogin          ChallengeKind = "daily_login"
	KindSpecialAchievement  ChallengeKind = "special_achievement"
)

// Difficulty 仅作展示，不参与匹配
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "pending"
	ChallengeCompleted ChallengeStatus = "completed"
)

// ChallengeReward 完成挑战后发放的奖励
type ChallengeReward struct {
	XPBonus       int    `gorm:"default:0" json:"xpBonus"`
	StreakBonus   int    `gorm:"default:0" json:"streakBonus"`
	SpecialReward string `gorm:"size:100" json:"specialReward,omitempty"`
	Badge         string `gorm:"size:100" json:"badge,omitempty"`
}

// ChallengeDefinition 某一天的挑战实例，生成后不再修改（Active 除外）
// swagger:model ChallengeDefinition
type ChallengeDefinition struct {
	BaseModel
	EffectiveDate    string          `gorm:"size:10;not null;uniqueIndex:idx_challenge_day_kind" json:"effectiveDate"`
	Kind             ChallengeKind   `gorm:"size:40;not null;uniqueIndex:idx_challenge_day_kind" json:"kind"`
	Title            string          `gorm:"size:255" json:"title"`
	Description      string          `gorm:"type:text" json:"description,omitempty"`
	TargetValue      int             `gorm:"not null" json:"targetValue"`
	Difficulty       Difficulty      `gorm:"size:20" json:"difficulty"`
	Rewards          ChallengeReward `gorm:"embedded;embeddedPrefix:reward_" json:"rewards"`
	ApplicableLevels []LearnerLevel  `gorm:"serializer:json;type:text" json:"applicableLevels,omitempty"`
	Active           bool            `gorm:"not null;index" json:"active"`
}

func (ChallengeDefinition) TableName() string {
	return "challenge_definitions"
}

// AppliesTo 未设置适用等级时对所有等级开放
func (d *ChallengeDefinition) AppliesTo(level LearnerLevel) bool {
	if len(d.ApplicableLevels) == 0 {
		return true
	}
	for _, l := range d.ApplicableLevels {
		if l == level {
			return true
		}
	}
	return false
}

// ChallengeProgress 用户针对某个挑战的进度，状态只能 pending -> completed
// swagger:model ChallengeProgress
type ChallengeProgress struct {
	BaseModel
	UserID        uint            `gorm:"not null;uniqueIndex:idx_user_challenge;index:idx_user_day" json:"userId"`
	ChallengeID   uint            `gorm:"not null;uniqueIndex:idx_user_challenge" json:"challengeId"`
	EffectiveDate string          `gorm:"size:10;not null;index:idx_user_day" json:"effectiveDate"`
	CurrentValue  int             `gorm:"default:0" json:"currentValue"`
	Status        ChallengeStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}

func (ChallengeProgress) TableName() string {
	return "challenge_progress"
}
