package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidDay           = errors.New("invalid day, expected YYYY-MM-DD")
	ErrInvalidLevel         = errors.New("invalid learner level")
	ErrEmptyCatalogPolicy   = errors.New("challenge catalog policy is empty")
	ErrInvalidCatalogPolicy = errors.New("challenge catalog policy is malformed")
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrLockNotAcquired      = errors.New("evaluation lock not acquired")
	ErrInvalidGameResult    = errors.New("invalid game result")
)
