package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 默认时区（曼谷）
const DefaultTimezone = "Asia/Bangkok"
