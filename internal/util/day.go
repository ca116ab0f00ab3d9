package util

import (
	"time"
)

// Today 返回指定时区下的当天日期（YYYY-MM-DD）
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateFormat)
}

// ParseDay 校验并规范化日期字符串
func ParseDay(s string) (string, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return "", ErrInvalidDay
	}
	return t.Format(DateFormat), nil
}

// PreviousDay 返回前一天
func PreviousDay(day string) (string, error) {
	t, err := time.Parse(DateFormat, day)
	if err != nil {
		return "", ErrInvalidDay
	}
	return t.AddDate(0, 0, -1).Format(DateFormat), nil
}

// LoadLocation 加载时区，空字符串使用默认时区
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	return time.LoadLocation(name)
}
