package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidRoundID = errors.New("invalid round id")

// ResolveOccurrenceID 生成"某巡检、某日、某计划时间"的确定性标识：
//
//	{roundId}_{YYYY}_{MM}_{DD}_{HHMM}
//
// 使用计划开始时间而不是当前时间，所以无论校验何时运行结果都相同，
// 它是合规记录的主键，两个校验节奏共用同一格式。
// referenceDate 只取其日期部分（调用方需先换算到设施本地时间）。
func ResolveOccurrenceID(roundID, scheduledTime string, referenceDate time.Time) (string, error) {
	if strings.TrimSpace(roundID) == "" {
		return "", ErrInvalidRoundID
	}
	hour, minute, err := ParseScheduledTime(scheduledTime)
	if err != nil {
		return "", err
	}
	y, m, d := referenceDate.Date()
	return fmt.Sprintf("%s_%04d_%02d_%02d_%02d%02d", roundID, y, int(m), d, hour, minute), nil
}
