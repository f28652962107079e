package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 校验节奏名称
const (
	CadenceMinute     = "minute"
	CadenceFiveMinute = "five_minute"
)

var ErrUnknownCadence = errors.New("unknown cadence")

// Cadence 一个校验节奏。两个节奏运行同一个 Checker，只有这里的开关不同
type Cadence struct {
	Name     string
	Interval time.Duration

	// FreshnessFilter 跳过不是当天（设施本地日期）创建的巡检规则
	FreshnessFilter bool
	// SecondaryQueryCheck 存在性检查额外按 {roundId, date, scheduledTime} 查询，
	// 兜住扫码完成路径以其它 key 写入的记录
	SecondaryQueryCheck bool
}

// CadenceSet 服务内配置的两个节奏
type CadenceSet struct {
	Minute     Cadence
	FiveMinute Cadence
}

// DefaultCadences 1 分钟与 5 分钟两个节奏
func DefaultCadences(minuteInterval, fiveMinuteInterval time.Duration, freshnessFilter bool) CadenceSet {
	if minuteInterval <= 0 {
		minuteInterval = time.Minute
	}
	if fiveMinuteInterval <= 0 {
		fiveMinuteInterval = 5 * time.Minute
	}
	return CadenceSet{
		Minute: Cadence{
			Name:     CadenceMinute,
			Interval: minuteInterval,
		},
		FiveMinute: Cadence{
			Name:                CadenceFiveMinute,
			Interval:            fiveMinuteInterval,
			FreshnessFilter:     freshnessFilter,
			SecondaryQueryCheck: true,
		},
	}
}

// Lookup 按名称取节奏，空名称为 minute
func (s CadenceSet) Lookup(name string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CadenceMinute:
		return s.Minute, nil
	case CadenceFiveMinute:
		return s.FiveMinute, nil
	default:
		return Cadence{}, fmt.Errorf("%w: %q", ErrUnknownCadence, name)
	}
}

// All 全部节奏
func (s CadenceSet) All() []Cadence {
	return []Cadence{s.Minute, s.FiveMinute}
}
