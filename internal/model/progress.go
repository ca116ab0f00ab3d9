package model

import "time"

// DailyProgress 用户每日学习计数，作为每日挑战的比较基线
type DailyProgress struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              uint      `gorm:"not null;uniqueIndex:idx_user_progress_day" json:"userId"`
	Day                 string    `gorm:"size:10;not null;uniqueIndex:idx_user_progress_day;index" json:"day"`
	XPEarned            int       `gorm:"default:0" json:"xpEarned"`
	GamesPlayed         int       `gorm:"default:0" json:"gamesPlayed"`
	PerfectScores       int       `gorm:"default:0" json:"perfectScores"`
	TimeSpentSeconds    int       `gorm:"default:0" json:"timeSpentSeconds"`
	CategoriesCompleted int       `gorm:"default:0" json:"categoriesCompleted"`
	CorrectAnswers      int       `gorm:"default:0" json:"correctAnswers"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (DailyProgress) TableName() string {
	return "daily_progress"
}

// ProgressSnapshot 某用户某天的计数快照（只读）
type ProgressSnapshot struct {
	XP                  int `json:"xp"`
	Streak              int `json:"streak"`
	GamesPlayed         int `json:"gamesPlayed"`
	PerfectScores       int `json:"perfectScores"`
	TimeSpentSeconds    int `json:"timeSpentSeconds"`
	CategoriesCompleted int `json:"categoriesCompleted"`
	CorrectAnswers      int `json:"correctAnswers"`
}

// EventSignals 事件型挑战的触发信号
type EventSignals struct {
	LoggedInToday              bool `json:"loggedInToday"`
	UnlockedSpecialAchievement bool `json:"unlockedSpecialAchievement"`
}

// Merge 任一来源为 true 即为 true
func (s EventSignals) Merge(o EventSignals) EventSignals {
	return EventSignals{
		LoggedInToday:              s.LoggedInToday || o.LoggedInToday,
		UnlockedSpecialAchievement: s.UnlockedSpecialAchievement || o.UnlockedSpecialAchievement,
	}
}
