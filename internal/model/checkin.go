package model

import (
	"time"
)

// Checkin 记录用户每日登录签到
// swagger:model Checkin
type Checkin struct {
	BaseModel
	UserID     uint      `gorm:"uniqueIndex:idx_user_checkin_day;not null" json:"userId"`
	Day        string    `gorm:"size:10;uniqueIndex:idx_user_checkin_day;not null" json:"day"`
	CheckinAt  time.Time `gorm:"not null" json:"checkinAt"`
	StreakDays int       `gorm:"default:1" json:"streakDays"` // 连续签到天数
}

func (Checkin) TableName() string {
	return "checkins"
}
