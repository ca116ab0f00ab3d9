package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// LearnerLevel 学习者水平
type LearnerLevel string

const (
	LevelBeginner     LearnerLevel = "Beginner"
	LevelIntermediate LearnerLevel = "Intermediate"
	LevelAdvanced     LearnerLevel = "Advanced"
)

func (l LearnerLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// User 学习者档案（累计经验、连续天数等）
// swagger:model User
type User struct {
	BaseModel
	Name          string       `gorm:"size:100" json:"name"`
	Email         string       `gorm:"size:100;index" json:"email"`
	Role          UserRole     `gorm:"size:20;default:'student'" json:"role"`
	Level         LearnerLevel `gorm:"size:20;default:'Beginner'" json:"level"`
	XP            int          `gorm:"default:0" json:"xp"`
	Streak        int          `gorm:"default:0" json:"streak"`
	LongestStreak int          `gorm:"default:0" json:"longestStreak"`
	LastLogin     *time.Time   `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
