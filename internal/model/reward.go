package model

import "time"

// RewardGrant 奖励发放记录，(user_id, challenge_id) 唯一，保证同一挑战只发放一次
type RewardGrant struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_reward_user_challenge" json:"userId"`
	ChallengeID uint `gorm:"not null;uniqueIndex:idx_reward_user_challenge" json:"challengeId"`
	ChallengeReward
	Day       string    `gorm:"size:10;index" json:"day"`
	GrantedAt time.Time `gorm:"not null" json:"grantedAt"`
}

func (RewardGrant) TableName() string {
	return "reward_grants"
}
