package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// GracePeriod 截止后再等待的缓冲，避免多个实例在截止瞬间与扫码完成竞争
const GracePeriod = 2 * time.Minute

// ToleranceUnit 容差单位
type ToleranceUnit string

const (
	UnitMinutes ToleranceUnit = "minutes"
	UnitHours   ToleranceUnit = "hours"
)

var (
	ErrInvalidScheduledTime = errors.New("invalid scheduled time")
	ErrInvalidTolerance     = errors.New("invalid tolerance")
)

// ParseScheduledTime 解析 "HH:MM"（小时允许一位），hour∈[0,23]，minute∈[0,59]
func ParseScheduledTime(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduledTime, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduledTime, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduledTime, s)
	}
	return hour, minute, nil
}

// NormalizeScheduledTime 统一成两位小时的 "HH:MM"，作为合规记录的计划时间标签
func NormalizeScheduledTime(s string) (string, error) {
	hour, minute, err := ParseScheduledTime(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// NormalizeToleranceUnit 兼容西语单位；空值按分钟处理
func NormalizeToleranceUnit(unit string) (ToleranceUnit, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "minutes", "minute", "minutos", "minuto", "min":
		return UnitMinutes, nil
	case "hours", "hour", "horas", "hora", "h":
		return UnitHours, nil
	default:
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidTolerance, unit)
	}
}

// ToleranceDuration 把容差换算成时长（小时先换算为分钟）
func ToleranceDuration(tolerance float64, unit string) (time.Duration, error) {
	if math.IsNaN(tolerance) || math.IsInf(tolerance, 0) || tolerance < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTolerance, tolerance)
	}
	u, err := NormalizeToleranceUnit(unit)
	if err != nil {
		return 0, err
	}
	minutes := tolerance
	if u == UnitHours {
		minutes = tolerance * 60
	}
	return time.Duration(math.Round(minutes * float64(time.Minute))), nil
}

// WindowStart reference 所在日期、reference 所在时区的 HH:MM 瞬间
func WindowStart(scheduledTime string, reference time.Time) (time.Time, error) {
	hour, minute, err := ParseScheduledTime(scheduledTime)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := reference.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, reference.Location()), nil
}

// ComputeWindow 返回 [开始, 截止]，截止 = 开始 + 容差
func ComputeWindow(scheduledTime string, tolerance float64, unit string, reference time.Time) (start, deadline time.Time, err error) {
	start, err = WindowStart(scheduledTime, reference)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	tol, err := ToleranceDuration(tolerance, unit)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(tol), nil
}

// ComputeDeadline 计算当天的截止瞬间
func ComputeDeadline(scheduledTime string, tolerance float64, unit string, reference time.Time) (time.Time, error) {
	_, deadline, err := ComputeWindow(scheduledTime, tolerance, unit, reference)
	return deadline, err
}

// MinutesUntilDeadline 向上取整的剩余分钟数；<=0 表示已到期
func MinutesUntilDeadline(deadline, now time.Time) int {
	m := math.Ceil(float64(deadline.Sub(now)) / float64(time.Minute))
	if m == 0 {
		return 0 // 消除 -0
	}
	return int(m)
}

// IsOverdue now 严格晚于截止才算超时
func IsOverdue(deadline, now time.Time) bool {
	return now.After(deadline)
}

// GraceElapsed now >= 截止 + GracePeriod
func GraceElapsed(deadline, now time.Time) bool {
	return !now.Before(deadline.Add(GracePeriod))
}
