package model

// AchievementSource 成就来源
type AchievementSource string

const (
	// 由学习进度里程碑解锁（升级、连续签到）
	AchievementMilestone AchievementSource = "milestone"
	// 每日挑战奖励的徽章
	AchievementChallenge AchievementSource = "challenge"
)

type Achievement struct {
	BaseModel
	UserID   uint              `gorm:"uniqueIndex:idx_user_achievement_code;not null" json:"userId"`
	Code     string            `gorm:"size:100;uniqueIndex:idx_user_achievement_code;not null" json:"code"`
	Name     string            `gorm:"size:100;not null" json:"name"`
	Icon     string            `gorm:"size:255" json:"icon,omitempty"`
	Source   AchievementSource `gorm:"size:20;index" json:"source"`
	Day      string            `gorm:"size:10;index" json:"day"`
	EarnedXP int               `gorm:"default:0" json:"earnedXp"`
}

func (Achievement) TableName() string {
	return "achievements"
}
