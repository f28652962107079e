// Package schedule 巡检时间工具：设施本地时间、日期键、频率匹配、截止时间与发生标识。
// 所有函数都是纯函数（Clock 除外，它只封装"现在"的来源），供 1 分钟与 5 分钟两个校验节奏共用。
package schedule

import (
	"fmt"
	"time"
)

// DefaultUTCOffset 设施固定时区偏移（UTC-5，不做夏令时调整）
const DefaultUTCOffset = -5 * time.Hour

// DateKeyLayout 日期键格式 YYYY-MM-DD
const DateKeyLayout = "2006-01-02"

// Clock 系统时钟 + 设施固定偏移
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock 创建时钟；now 为 nil 时使用 time.Now
func NewClock(offset time.Duration, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: FixedLocation(offset), now: now}
}

// FixedLocation 把偏移量转换成固定时区（纯日历运算，不查时区库）
func FixedLocation(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	sign := "+"
	abs := secs
	if secs < 0 {
		sign = "-"
		abs = -secs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, secs)
}

// Now 返回系统时钟的当前瞬间
func (c *Clock) Now() time.Time {
	return c.now()
}

// LocalNow 返回设施本地时间
func (c *Clock) LocalNow() time.Time {
	return c.now().In(c.loc)
}

// Location 设施固定时区
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Local 把任意瞬间换算到设施本地时间
func (c *Clock) Local(t time.Time) time.Time {
	return t.In(c.loc)
}

// DateKey 返回某个瞬间在设施本地的日期键
func (c *Clock) DateKey(t time.Time) string {
	return FormatDateKey(t.In(c.loc))
}

// FormatDateKey 按 t 自身的时区格式化为 YYYY-MM-DD
func FormatDateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey 解析 YYYY-MM-DD 为 loc 中当天零点
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}
